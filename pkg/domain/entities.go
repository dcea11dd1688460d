// Package domain defines the client registry entities, the rejection
// taxonomy, and the rule evaluation primitives used by clientcore.
package domain

import "encoding/json"

// EntityType identifies the type of record stored in a collection.
type EntityType string

// Supported entity type identifiers used in Change records, rejections and id generation.
const (
	// EntityClient identifies a client record.
	EntityClient EntityType = "client"
	// EntityRutAccount identifies a client's RUT account.
	EntityRutAccount EntityType = "rut_account"
	// EntitySavingAccount identifies one of a client's savings accounts.
	EntitySavingAccount EntityType = "saving_account"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	// SeverityLog is recorded at info level and allows commit.
	SeverityLog Severity = "log"
)

// RutAccount is the single checking-style account a client may hold.
type RutAccount struct {
	ID      string  `json:"id"`
	Number  string  `json:"number"`
	Balance float64 `json:"balance"`
}

// SavingAccount is a secondary account; a client may hold several.
type SavingAccount struct {
	ID      string  `json:"id"`
	Number  string  `json:"number"`
	Balance float64 `json:"balance"`
}

// Client owns its accounts exclusively. SavingAccounts keeps insertion order.
type Client struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	RutAccount     *RutAccount     `json:"rutAccount"`
	SavingAccounts []SavingAccount `json:"savingAccounts"`
}

// HasRut reports whether the client currently holds a RUT account.
func (c Client) HasRut() bool { return c.RutAccount != nil }

// AccountCount returns the total number of accounts owned by the client.
func (c Client) AccountCount() int {
	n := len(c.SavingAccounts)
	if c.RutAccount != nil {
		n++
	}
	return n
}

// FindSaving returns the index of the savings account with the given id, or -1.
func (c Client) FindSaving(id string) int {
	for i, acc := range c.SavingAccounts {
		if acc.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that shares no memory with the receiver.
func (c Client) Clone() Client {
	cp := c
	if c.RutAccount != nil {
		rut := *c.RutAccount
		cp.RutAccount = &rut
	}
	cp.SavingAccounts = append(make([]SavingAccount, 0, len(c.SavingAccounts)), c.SavingAccounts...)
	return cp
}

// MarshalJSON always emits savingAccounts as an array.
func (c Client) MarshalJSON() ([]byte, error) {
	type clientAlias Client
	alias := clientAlias(c)
	if alias.SavingAccounts == nil {
		alias.SavingAccounts = []SavingAccount{}
	}
	return json.Marshal(alias)
}

// Collection is the persisted aggregate: every client, in insertion order.
type Collection struct {
	Clients []Client `json:"clients"`
}

// Clone deep-copies the collection.
func (c Collection) Clone() Collection {
	out := Collection{Clients: make([]Client, 0, len(c.Clients))}
	for _, client := range c.Clients {
		out.Clients = append(out.Clients, client.Clone())
	}
	return out
}

// IndexOf returns the position of the client with the given id, or -1.
func (c Collection) IndexOf(id string) int {
	for i, client := range c.Clients {
		if client.ID == id {
			return i
		}
	}
	return -1
}

// MarshalJSON always emits clients as an array.
func (c Collection) MarshalJSON() ([]byte, error) {
	type collectionAlias Collection
	alias := collectionAlias(c)
	if alias.Clients == nil {
		alias.Clients = []Client{}
	}
	return json.Marshal(alias)
}

// AccountInput carries the caller supplied fields for a new account.
type AccountInput struct {
	Number  string
	Balance float64
}

// CreateClientInput is the validated request to register a client.
type CreateClientInput struct {
	Name           string
	RutAccount     *AccountInput
	SavingAccounts []AccountInput
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity   EntityType
	Action   Action
	ClientID string
	Before   any
	After    any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the change set.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// FirstBlocking returns the first blocking violation, if any.
func (r Result) FirstBlocking() (Violation, bool) {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return v, true
		}
	}
	return Violation{}, false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if v, ok := e.Result.FirstBlocking(); ok {
		return "transaction blocked by rules: " + v.Message
	}
	return "transaction blocked by rules"
}
