// Package file persists the client collection as a pretty-printed JSON
// document on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"clientcore/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// DefaultPath is the snapshot location used when none is configured.
const DefaultPath = "data/clients.json"

// Store reads and writes the snapshot file. Writes go to a temporary file in
// the same directory which is synced and renamed over the target, so readers
// only ever observe a complete document.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore returns a store for path, creating its parent directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Load implements domain.SnapshotStore. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return domain.Collection{}, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Collection{Clients: []domain.Client{}}, nil
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var coll domain.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return domain.Collection{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if coll.Clients == nil {
		coll.Clients = []domain.Client{}
	}
	return coll, nil
}

// Save implements domain.SnapshotStore.
func (s *Store) Save(ctx context.Context, coll domain.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
