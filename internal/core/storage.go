package core

import (
	"context"
	"fmt"
	"io"

	"clientcore/internal/blob"
	"clientcore/internal/infra/persistence/file"
	"clientcore/internal/infra/persistence/memory"
	"clientcore/internal/infra/persistence/object"
	"clientcore/internal/infra/persistence/postgres"
	"clientcore/internal/infra/persistence/redis"
	"clientcore/internal/infra/persistence/sqlite"
	"clientcore/pkg/domain"
)

// StorageDriver identifies a concrete snapshot store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageFile     StorageDriver = "file"     // JSON document on disk (default)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // single Redis key
	StorageObject   StorageDriver = "object"   // blob store object (fs, s3, memory)
)

// StorageOptions carries the settings of every backend; only those of the
// selected driver are read.
type StorageOptions struct {
	Driver      StorageDriver
	FilePath    string
	SQLitePath  string
	PostgresDSN string
	RedisAddr   string
	RedisKey    string
	Blob        blob.Options
	BlobKey     string
}

// OpenedStore is a snapshot store together with the resources it holds.
type OpenedStore struct {
	domain.SnapshotStore
	Driver StorageDriver
	closer io.Closer
}

// Close releases the backend's connections, if any.
func (o OpenedStore) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// OpenSnapshotStore selects a backend from opts. Defaults to file.
func OpenSnapshotStore(ctx context.Context, opts StorageOptions) (OpenedStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageMemory:
		return OpenedStore{SnapshotStore: memory.NewStore(), Driver: driver}, nil
	case StorageFile:
		s, err := file.NewStore(opts.FilePath)
		if err != nil {
			return OpenedStore{}, err
		}
		return OpenedStore{SnapshotStore: s, Driver: driver}, nil
	case StorageSQLite:
		s, err := sqlite.NewStore(opts.SQLitePath)
		if err != nil {
			return OpenedStore{}, err
		}
		return OpenedStore{SnapshotStore: s, Driver: driver, closer: s}, nil
	case StoragePostgres:
		s, err := postgres.NewStore(ctx, opts.PostgresDSN)
		if err != nil {
			return OpenedStore{}, err
		}
		return OpenedStore{SnapshotStore: s, Driver: driver, closer: s}, nil
	case StorageRedis:
		s, err := redis.NewStore(ctx, opts.RedisAddr, opts.RedisKey)
		if err != nil {
			return OpenedStore{}, err
		}
		return OpenedStore{SnapshotStore: s, Driver: driver, closer: s}, nil
	case StorageObject:
		blobs, err := blob.Open(ctx, opts.Blob)
		if err != nil {
			return OpenedStore{}, err
		}
		return OpenedStore{SnapshotStore: object.NewStore(blobs, opts.BlobKey), Driver: driver}, nil
	default:
		return OpenedStore{}, fmt.Errorf("unknown storage driver %s", driver)
	}
}
