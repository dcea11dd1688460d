// Package idgen provides identifier sources for clients and accounts.
package idgen

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"clientcore/pkg/domain"
)

// Prefix returns the identifier prefix used for an entity kind.
func Prefix(kind domain.EntityType) string {
	switch kind {
	case domain.EntityClient:
		return "c_"
	case domain.EntityRutAccount:
		return "r_"
	case domain.EntitySavingAccount:
		return "s_"
	default:
		return ""
	}
}

// UUID issues prefixed random (version 4) UUIDs.
type UUID struct {
	newFn func() (uuid.UUID, error)
}

// NewUUID constructs a UUID generator.
func NewUUID() *UUID {
	return &UUID{newFn: uuid.NewRandom}
}

// NewID implements domain.IDGenerator. It panics only when the system
// randomness source fails.
func (g *UUID) NewID(kind domain.EntityType) string {
	id, err := g.newFn()
	if err != nil {
		panic(fmt.Errorf("idgen: generate uuid: %w", err))
	}
	return Prefix(kind) + strings.ReplaceAll(id.String(), "-", "")
}

// Sequence issues deterministic, monotonically increasing identifiers
// ("c_1", "r_2", ...). Numbers are shared across kinds and never reused.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence constructs a sequence generator whose first id ends in start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

// NewID implements domain.IDGenerator.
func (s *Sequence) NewID(kind domain.EntityType) string {
	return fmt.Sprintf("%s%d", Prefix(kind), s.next.Add(1))
}
