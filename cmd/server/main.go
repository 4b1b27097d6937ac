package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/adapter/handler"
	"github.com/zots0127/vidstore/internal/config"
	"github.com/zots0127/vidstore/internal/domain/repository"
	"github.com/zots0127/vidstore/internal/infrastructure/blob"
	"github.com/zots0127/vidstore/internal/infrastructure/catalog"
	"github.com/zots0127/vidstore/internal/observability"
	"github.com/zots0127/vidstore/internal/usecase"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLogger(cfg.Server.Dev)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cat, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer cat.Close()

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal("failed to open blob store", zap.Error(err))
	}

	validator := usecase.NewMimeValidator(cfg.Upload.AllowedTypes)
	ingestor := usecase.NewIngestor(cat, blobs, validator,
		cfg.Upload.MaxDiskWrites, cfg.Upload.ChunkSize, logger)

	metrics := observability.InitMetrics()
	router := handler.NewRouter(ingestor, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reaper *usecase.Reaper
	if cfg.Reaper.Enabled {
		reaper = usecase.NewReaper(cat, blobs,
			cfg.ReaperInterval(), cfg.ReaperMaxAge(), logger)
		reaper.Start(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if reaper != nil {
		reaper.Stop()
	}
}

func newBlobStore(cfg *config.Config) (repository.BlobRepository, error) {
	if cfg.Blob.Backend == "s3" {
		return blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.Blob.S3.Endpoint,
			Region:    cfg.Blob.S3.Region,
			Bucket:    cfg.Blob.S3.Bucket,
			AccessKey: cfg.Blob.S3.AccessKey,
			SecretKey: cfg.Blob.S3.SecretKey,
			PathStyle: cfg.Blob.S3.PathStyle,
		}, filepath.Join(cfg.Blob.Path, "spool"))
	}
	return blob.NewDiskStore(cfg.Blob.Path)
}
