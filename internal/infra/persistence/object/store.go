// Package object stores the client collection snapshot as a single JSON
// object in a blob store (filesystem, S3 or memory).
package object

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"clientcore/internal/blob"
	"clientcore/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// DefaultKey is the object key used when none is configured.
const DefaultKey = "snapshots/clients.json"

const contentType = "application/json"

// Store reads and replaces one object holding the whole collection.
type Store struct {
	blobs blob.Store
	key   string
	mu    sync.Mutex
}

// NewStore wraps blobs; key defaults to DefaultKey.
func NewStore(blobs blob.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{blobs: blobs, key: key}
}

// Key returns the snapshot object key.
func (s *Store) Key() string { return s.key }

// Load implements domain.SnapshotStore.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return domain.Collection{Clients: []domain.Client{}}, nil
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("read %s: %w", s.key, err)
	}
	var coll domain.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return domain.Collection{}, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if coll.Clients == nil {
		coll.Clients = []domain.Client{}
	}
	return coll, nil
}

// Save implements domain.SnapshotStore.
func (s *Store) Save(ctx context.Context, coll domain.Collection) error {
	data, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}
	return nil
}
