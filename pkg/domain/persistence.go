package domain

import "context"

// SnapshotStore durably holds the whole client collection as one unit.
// Load returns an empty collection when nothing has been saved yet. Each
// call must return a copy that shares no memory with other callers.
type SnapshotStore interface {
	Load(ctx context.Context) (Collection, error)
	Save(ctx context.Context, collection Collection) error
}

// IDGenerator produces identifiers that are unique for the lifetime of the process.
type IDGenerator interface {
	NewID(kind EntityType) string
}
