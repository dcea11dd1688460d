// Package redis keeps the client collection snapshot under a single Redis key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"clientcore/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

const (
	// DefaultAddr is used when no address is configured.
	DefaultAddr = "localhost:6379"
	// DefaultKey names the key holding the snapshot.
	DefaultKey = "clientcore:clients"

	pingTimeout = 3 * time.Second
)

// Store reads and writes the snapshot as one JSON string value.
type Store struct {
	client *goredis.Client
	key    string
	owned  bool
}

// NewStore connects to addr, which may be a redis:// URL or a host:port pair.
func NewStore(ctx context.Context, addr, key string) (*Store, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	var client *goredis.Client
	if opts, err := goredis.ParseURL(addr); err == nil {
		client = goredis.NewClient(opts)
	} else {
		client = goredis.NewClient(&goredis.Options{Addr: addr})
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	s := NewStoreWithClient(client, key)
	s.owned = true
	return s, nil
}

// NewStoreWithClient wraps an existing client. Close leaves it open.
func NewStoreWithClient(client *goredis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Key returns the snapshot key.
func (s *Store) Key() string { return s.key }

// Load implements domain.SnapshotStore.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Collection{Clients: []domain.Client{}}, nil
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get %s: %w", s.key, err)
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

// Save implements domain.SnapshotStore. SET replaces the value atomically.
func (s *Store) Save(ctx context.Context, coll domain.Collection) error {
	data, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
