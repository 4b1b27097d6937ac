package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zots0127/vidstore/internal/domain/repository"
)

// DiskStore keeps blobs as plain files under a local root directory,
// sharded by identifier prefix to keep directories small.
type DiskStore struct {
	basePath string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(basePath string) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskStore{basePath: basePath}, nil
}

func (s *DiskStore) blobPath(id string) string {
	// Identifiers are UUIDs in practice, but the store must not assume a
	// minimum length.
	shard := id
	if len(id) > 2 {
		shard = id[:2]
	}
	return filepath.Join(s.basePath, shard, id)
}

// OpenWrite creates an empty file at the blob path. O_EXCL guards the
// single-writer contract: the identifier space is never reused, so a
// pre-existing file at id means a protocol violation, not a retry.
func (s *DiskStore) OpenWrite(ctx context.Context, id string) (repository.WriteHandle, error) {
	path := s.blobPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob: %w", err)
	}

	return &diskHandle{f: f}, nil
}

// OpenRead opens the blob for streaming back to a client.
func (s *DiskStore) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(s.blobPath(id))
	if os.IsNotExist(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob and reports whether it existed.
func (s *DiskStore) Delete(ctx context.Context, id string) (bool, error) {
	err := os.Remove(s.blobPath(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete blob: %w", err)
	}
	return true, nil
}

type diskHandle struct {
	f *os.File
}

func (h *diskHandle) Write(p []byte) (int, error) {
	return h.f.Write(p)
}

func (h *diskHandle) Finalize(ctx context.Context) error {
	if err := h.f.Sync(); err != nil {
		h.f.Close()
		return fmt.Errorf("failed to sync blob: %w", err)
	}
	return h.f.Close()
}

func (h *diskHandle) Abort() error {
	return h.f.Close()
}
