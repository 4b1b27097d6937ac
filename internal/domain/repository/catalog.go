package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zots0127/vidstore/internal/domain/entities"
)

// CatalogRepository owns the metadata records. Identifiers are generated by
// the catalog on Create and are never reused. Malformed identifiers passed
// to Get, UpdateSize or Delete behave like unknown identifiers rather than
// errors, so garbage client input stays on the not-found path.
type CatalogRepository interface {
	// Create inserts a placeholder record (size 0) and returns its new
	// identifier. Returns ErrNameTaken when a live record with the same
	// name already exists.
	Create(ctx context.Context, name string, mime entities.Mime) (string, error)

	// UpdateSize sets the final byte count exactly once after the blob has
	// been synced. Returns false when the identifier is malformed or
	// unknown.
	UpdateSize(ctx context.Context, id string, size int64) (bool, error)

	// Get returns the record, or nil when the identifier is malformed or
	// unknown.
	Get(ctx context.Context, id string) (*entities.FileRecord, error)

	// List returns all records. Order is not guaranteed.
	List(ctx context.Context) ([]*entities.FileRecord, error)

	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ListStale returns identifiers of placeholder records (size 0)
	// created before the cutoff. Used by the reaper.
	ListStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

var (
	// ErrNameTaken signals that a live record with the requested name
	// already exists.
	ErrNameTaken = errors.New("file name already registered")

	// ErrNotFound signals an unknown or malformed identifier on the read
	// path.
	ErrNotFound = errors.New("file not found")
)
