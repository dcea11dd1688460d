// Package memory provides an in-memory snapshot store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sync"

	"clientcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.SnapshotStore = (*Store)(nil)

// Store keeps the last saved collection in process memory. Load and Save
// deep-copy, so callers never share state with the store or each other.
type Store struct {
	mu       sync.RWMutex
	snapshot domain.Collection
	saved    bool
	saves    int
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith constructs a store pre-populated with the given collection.
func NewStoreWith(initial domain.Collection) *Store {
	return &Store{snapshot: initial.Clone(), saved: true}
}

// Load implements domain.SnapshotStore.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return domain.Collection{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return domain.Collection{Clients: []domain.Client{}}, nil
	}
	return s.snapshot.Clone(), nil
}

// Save implements domain.SnapshotStore.
func (s *Store) Save(ctx context.Context, collection domain.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = collection.Clone()
	s.saved = true
	s.saves++
	return nil
}

// Saves reports how many snapshots have been written.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
