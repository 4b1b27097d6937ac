package repository

import (
	"context"
	"io"
)

// WriteHandle is a single-owner, single-writer byte sink for one blob.
// Writes append in call order; the handle must never be shared between
// goroutines. Exactly one of Finalize or Abort must be called.
type WriteHandle interface {
	io.Writer

	// Finalize forces a durable sync of everything written and releases
	// the handle. After Finalize the blob is immutable.
	Finalize(ctx context.Context) error

	// Abort releases the handle without syncing. Partially written bytes
	// may remain behind; reclaiming them is the reaper's job.
	Abort() error
}

// BlobRepository owns the durable byte content of uploads, keyed by the
// catalog-generated identifier.
type BlobRepository interface {
	// OpenWrite creates a new, empty, exclusively-owned sink at id.
	OpenWrite(ctx context.Context, id string) (WriteHandle, error)

	// OpenRead opens a finalized blob for reading. Returns ErrNotFound
	// when no blob exists at id.
	OpenRead(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the blob and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}
