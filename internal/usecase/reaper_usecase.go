package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/domain/repository"
)

// Reaper periodically collects orphaned placeholders: size-0 records whose
// upload died after the catalog reservation (client disconnect, blob write
// failure). Records younger than maxAge are left alone since they may
// belong to an upload still in flight.
type Reaper struct {
	catalog  repository.CatalogRepository
	blobs    repository.BlobRepository
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

func NewReaper(
	catalog repository.CatalogRepository,
	blobs repository.BlobRepository,
	interval, maxAge time.Duration,
	logger *zap.Logger,
) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Reaper{
		catalog:  catalog,
		blobs:    blobs,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
	r.logger.Info("reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("max_age", r.maxAge))
}

func (r *Reaper) Stop() {
	close(r.done)
	r.logger.Info("reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one collection pass. Removal follows the same order as client
// deletes: record first, then blob, so a crashed sweep never leaves a
// record pointing at a removed blob.
func (r *Reaper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxAge)
	ids, err := r.catalog.ListStale(ctx, cutoff)
	if err != nil {
		r.logger.Error("failed to list stale records", zap.Error(err))
		return
	}

	for _, id := range ids {
		if _, err := r.catalog.Delete(ctx, id); err != nil {
			r.logger.Error("failed to reap record", zap.String("id", id), zap.Error(err))
			continue
		}
		existed, err := r.blobs.Delete(ctx, id)
		if err != nil {
			r.logger.Error("failed to reap blob", zap.String("id", id), zap.Error(err))
			continue
		}
		r.logger.Info("reaped orphaned placeholder",
			zap.String("id", id),
			zap.Bool("had_blob", existed))
	}
}
