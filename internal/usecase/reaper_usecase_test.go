package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/domain/entities"
	"github.com/zots0127/vidstore/internal/domain/repository"
	"github.com/zots0127/vidstore/internal/infrastructure/blob"
	"github.com/zots0127/vidstore/internal/infrastructure/catalog"
)

func TestSweepCollectsOrphanedPlaceholders(t *testing.T) {
	ctx := context.Background()
	mime := entities.Mime{Type: "video", Subtype: "mp4"}

	cat, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	blobs, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	// Orphan: placeholder record plus a partial blob left by a dead upload.
	orphan, err := cat.Create(ctx, "orphan.mp4", mime)
	require.NoError(t, err)
	h, err := blobs.OpenWrite(ctx, orphan)
	require.NoError(t, err)
	_, err = h.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, h.Abort())

	// Orphan without a blob: OpenWrite never happened.
	bare, err := cat.Create(ctx, "bare.mp4", mime)
	require.NoError(t, err)

	// Finished upload: size recorded, must survive the sweep.
	done, err := cat.Create(ctx, "done.mp4", mime)
	require.NoError(t, err)
	hd, err := blobs.OpenWrite(ctx, done)
	require.NoError(t, err)
	_, err = hd.Write([]byte("complete"))
	require.NoError(t, err)
	require.NoError(t, hd.Finalize(ctx))
	ok, err := cat.UpdateSize(ctx, done, 8)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(10 * time.Millisecond)

	reaper := NewReaper(cat, blobs, time.Minute, time.Millisecond, zap.NewNop())
	reaper.Sweep(ctx)

	rec, err := cat.Get(ctx, orphan)
	require.NoError(t, err)
	assert.Nil(t, rec)
	_, err = blobs.OpenRead(ctx, orphan)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rec, err = cat.Get(ctx, bare)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = cat.Get(ctx, done)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(8), rec.Size)
	rc, err := blobs.OpenRead(ctx, done)
	require.NoError(t, err)
	rc.Close()
}

func TestSweepLeavesYoungPlaceholders(t *testing.T) {
	ctx := context.Background()

	cat, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	blobs, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	// An upload still in flight looks exactly like an orphan; only age
	// separates them.
	id, err := cat.Create(ctx, "inflight.mp4", entities.Mime{Type: "video", Subtype: "mp4"})
	require.NoError(t, err)

	reaper := NewReaper(cat, blobs, time.Minute, time.Hour, zap.NewNop())
	reaper.Sweep(ctx)

	rec, err := cat.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
