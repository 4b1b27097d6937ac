package blob

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/zots0127/vidstore/internal/domain/repository"
)

// S3Config holds connection settings for an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// S3Store keeps blobs in an S3-compatible object store. Chunks are spooled
// to a local temp file and uploaded as one object on Finalize, so the
// durable-before-size-update ordering is the upload itself.
type S3Store struct {
	svc      *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	spoolDir string
}

// NewS3Store builds the client and verifies the bucket is reachable.
func NewS3Store(cfg S3Config, spoolDir string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	if err := os.MkdirAll(spoolDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	svc := s3.New(sess)
	if _, err := svc.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("bucket %s not reachable: %w", cfg.Bucket, err)
	}

	return &S3Store{
		svc:      svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		bucket:   cfg.Bucket,
		spoolDir: spoolDir,
	}, nil
}

func (s *S3Store) OpenWrite(ctx context.Context, id string) (repository.WriteHandle, error) {
	f, err := os.CreateTemp(s.spoolDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	return &s3Handle{store: s, id: id, spool: f}, nil
}

func (s *S3Store) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) (bool, error) {
	_, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}

	_, err = s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete object: %w", err)
	}
	return true, nil
}

type s3Handle struct {
	store *S3Store
	id    string
	spool *os.File
}

func (h *s3Handle) Write(p []byte) (int, error) {
	return h.spool.Write(p)
}

func (h *s3Handle) Finalize(ctx context.Context) error {
	defer os.Remove(h.spool.Name())
	defer h.spool.Close()

	if _, err := h.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind spool file: %w", err)
	}

	_, err := h.store.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(h.store.bucket),
		Key:    aws.String(h.id),
		Body:   h.spool,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

func (h *s3Handle) Abort() error {
	defer os.Remove(h.spool.Name())
	return h.spool.Close()
}
