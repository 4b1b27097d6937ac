package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/zots0127/vidstore/internal/domain/entities"
	"github.com/zots0127/vidstore/internal/domain/repository"
)

var (
	// ErrMissingField signals that the multipart body carried no usable
	// "data" field, or that the field lacked a filename or content type.
	ErrMissingField = errors.New("required field not found")

	// ErrUnsupportedMedia signals a declared content type outside the
	// allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// fieldName is the one multipart field the coordinator consumes; every
// other field is drained and skipped without inspection.
const fieldName = "data"

// UploadResult is returned to the transport adapter on success.
type UploadResult struct {
	ID   string
	Size int64
}

// Ingestor drives one upload end to end: validate the data field, reserve
// an identifier in the catalog, stream chunks into the blob store, then
// record the final size. The catalog and the blob store fail independently
// and no cross-store step is transactional; failures after the catalog
// reservation leave orphans behind, which the reaper later collects. The
// orphaned identifier is never returned to the client.
type Ingestor struct {
	catalog   repository.CatalogRepository
	blobs     repository.BlobRepository
	validator *MimeValidator
	diskSem   *semaphore.Weighted
	chunkSize int
	logger    *zap.Logger
}

// NewIngestor wires the coordinator. maxDiskWrites bounds the number of
// blob writes blocked in the kernel at once across all concurrent uploads;
// chunkSize is the single per-upload buffer.
func NewIngestor(
	catalog repository.CatalogRepository,
	blobs repository.BlobRepository,
	validator *MimeValidator,
	maxDiskWrites int64,
	chunkSize int,
	logger *zap.Logger,
) *Ingestor {
	if maxDiskWrites <= 0 {
		maxDiskWrites = 16
	}
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	return &Ingestor{
		catalog:   catalog,
		blobs:     blobs,
		validator: validator,
		diskSem:   semaphore.NewWeighted(maxDiskWrites),
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Upload scans the multipart stream for the data field and ingests it.
// Validation failures happen before any store is touched.
func (i *Ingestor) Upload(ctx context.Context, parts *multipart.Reader) (*UploadResult, error) {
	for {
		part, err := parts.NextPart()
		if err == io.EOF {
			return nil, ErrMissingField
		}
		if err != nil {
			// An unreadable stream is a client problem, same bucket as a
			// missing field.
			return nil, fmt.Errorf("unreadable multipart stream: %w", ErrMissingField)
		}

		if part.FormName() != fieldName {
			drain(part)
			continue
		}

		return i.ingest(ctx, part)
	}
}

func (i *Ingestor) ingest(ctx context.Context, part *multipart.Part) (*UploadResult, error) {
	defer part.Close()

	name := part.FileName()
	if name == "" {
		drain(part)
		return nil, ErrMissingField
	}

	declared, err := parseContentType(part.Header.Get("Content-Type"))
	if err != nil {
		drain(part)
		return nil, ErrMissingField
	}

	if !i.validator.Admit(declared) {
		drain(part)
		return nil, ErrUnsupportedMedia
	}

	id, err := i.catalog.Create(ctx, name, declared)
	if err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reserve record: %w", err)
	}

	size, err := i.stream(ctx, id, part)
	if err != nil {
		// The placeholder record and any partial blob stay behind as
		// orphans; id was never handed to the client.
		i.logger.Warn("upload failed after reservation",
			zap.String("id", id),
			zap.String("name", name),
			zap.Error(err))
		return nil, err
	}

	// Weak final step: a lost size update leaves a size-0 record pointing
	// at a complete blob. The read path tolerates that, so the id is
	// still returned.
	if ok, err := i.catalog.UpdateSize(ctx, id, size); err != nil || !ok {
		i.logger.Warn("failed to record final size",
			zap.String("id", id),
			zap.Int64("size", size),
			zap.Error(err))
	}

	return &UploadResult{ID: id, Size: size}, nil
}

// stream copies the field body into a fresh write handle, one chunk at a
// time. Each write is gated by the process-wide semaphore so slow disks
// cannot pile up unbounded blocked writers; the handle stays owned by this
// goroutine throughout.
func (i *Ingestor) stream(ctx context.Context, id string, part *multipart.Part) (int64, error) {
	handle, err := i.blobs.OpenWrite(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to open blob for write: %w", err)
	}

	buf := make([]byte, i.chunkSize)
	var size int64
	for {
		n, rerr := part.Read(buf)
		if n > 0 {
			if werr := i.writeChunk(ctx, handle, buf[:n]); werr != nil {
				handle.Abort()
				return 0, fmt.Errorf("failed to write chunk: %w", werr)
			}
			size += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			handle.Abort()
			return 0, fmt.Errorf("failed to read chunk: %w", rerr)
		}
	}

	if err := handle.Finalize(ctx); err != nil {
		return 0, fmt.Errorf("failed to finalize blob: %w", err)
	}

	return size, nil
}

func (i *Ingestor) writeChunk(ctx context.Context, handle repository.WriteHandle, chunk []byte) error {
	if err := i.diskSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer i.diskSem.Release(1)

	_, err := handle.Write(chunk)
	return err
}

// Fetch returns the record together with a reader over the blob bytes.
// The stored size is not trusted here: a record whose size update was lost
// still streams its complete blob.
func (i *Ingestor) Fetch(ctx context.Context, id string) (*entities.FileRecord, io.ReadCloser, error) {
	rec, err := i.catalog.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, repository.ErrNotFound
	}

	rc, err := i.blobs.OpenRead(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, rc, nil
}

// List returns all catalog records.
func (i *Ingestor) List(ctx context.Context) ([]*entities.FileRecord, error) {
	return i.catalog.List(ctx)
}

// Remove deletes the catalog record first, then the blob. A blob left
// behind by a failed second step is unreachable (identifiers are never
// reused), so it only wastes space.
func (i *Ingestor) Remove(ctx context.Context, id string) error {
	existed, err := i.catalog.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return repository.ErrNotFound
	}

	if _, err := i.blobs.Delete(ctx, id); err != nil {
		i.logger.Warn("record removed but blob delete failed",
			zap.String("id", id),
			zap.Error(err))
	}
	return nil
}

func drain(part *multipart.Part) {
	io.Copy(io.Discard, part)
	part.Close()
}

func parseContentType(header string) (entities.Mime, error) {
	if header == "" {
		return entities.Mime{}, ErrMissingField
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return entities.Mime{}, err
	}
	mtype, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return entities.Mime{}, ErrMissingField
	}
	return entities.Mime{Type: mtype, Subtype: subtype}, nil
}
