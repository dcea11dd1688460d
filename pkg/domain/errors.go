package domain

import (
	"errors"
	"fmt"
)

// RejectionKind tags a structured refusal of a requested mutation.
type RejectionKind string

// Rejection kinds reported to callers.
const (
	// KindMissingField means a required input was absent or empty.
	KindMissingField RejectionKind = "missing_field"
	// KindInvalidState means the operation would violate an account invariant.
	KindInvalidState RejectionKind = "invalid_state"
	// KindConflict means a singleton already exists (a second RUT account).
	KindConflict RejectionKind = "conflict"
	// KindForbidden means the active policy disallows the operation outright.
	KindForbidden RejectionKind = "forbidden"
	// KindNotFound means a referenced client or account id is unknown.
	KindNotFound RejectionKind = "not_found"
)

// Rejection is returned instead of a successful mutation result.
// Message is safe to display to end users.
type Rejection struct {
	Kind     RejectionKind
	Entity   EntityType
	EntityID string
	Message  string
	// Cause is set when the rejection was derived from another error, such
	// as a RuleViolationError raised by post-mutation verification.
	Cause error
}

func (r Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return string(r.Kind)
}

func (r Rejection) Unwrap() error { return r.Cause }

// Reject builds a rejection with a formatted message.
func Reject(kind RejectionKind, entity EntityType, id, format string, args ...any) Rejection {
	return Rejection{Kind: kind, Entity: entity, EntityID: id, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds the NotFound rejection for the given entity.
func NotFound(entity EntityType, id string) Rejection {
	return Rejection{Kind: KindNotFound, Entity: entity, EntityID: id, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// AsRejection extracts a Rejection from err's chain.
func AsRejection(err error) (Rejection, bool) {
	var rej Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return Rejection{}, false
}

// IsKind reports whether err carries a rejection of the given kind.
func IsKind(err error, kind RejectionKind) bool {
	rej, ok := AsRejection(err)
	return ok && rej.Kind == kind
}

// StoreError wraps a durable store failure. The operation that produced it
// did not persist anything.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err wraps a StoreError.
func IsStoreError(err error) bool {
	var se StoreError
	return errors.As(err, &se)
}
