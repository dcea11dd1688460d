// Package sqlite persists the client collection as a JSON snapshot inside a
// single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clientcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.SnapshotStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "data/clients.db"

const bucketClients = "clients"

// Store keeps the whole collection under one row of the state table.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the SQLite database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes readers with the snapshot writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Load implements domain.SnapshotStore.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucketClients).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Collection{Clients: []domain.Client{}}, nil
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("select state: %w", err)
	}
	var coll domain.Collection
	if err := json.Unmarshal(payload, &coll); err != nil {
		return domain.Collection{}, fmt.Errorf("decode %s: %w", bucketClients, err)
	}
	if coll.Clients == nil {
		coll.Clients = []domain.Client{}
	}
	return coll, nil
}

// Save implements domain.SnapshotStore.
func (s *Store) Save(ctx context.Context, coll domain.Collection) (retErr error) {
	data, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bucketClients, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucketClients, data); err != nil {
		return fmt.Errorf("upsert %s: %w", bucketClients, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
