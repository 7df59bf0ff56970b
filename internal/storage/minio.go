package storage

import (
	"bytes"
	"context"
	"path"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage uploads documents to a MinIO (or any S3 compatible) bucket
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	prefix  string
	baseURL string
	logger  *logger.Logger
}

func NewMinioStorage(cfg *config.StorageConfig, log *logger.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to create minio client").
			Mark(ierr.ErrHTTPClient)
	}

	return &MinioStorage{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		prefix:  cfg.S3.KeyPrefix,
		baseURL: cfg.BaseURL,
		logger:  log,
	}, nil
}

// EnsureDirectory creates the bucket if it doesn't exist
func (s *MinioStorage) EnsureDirectory(ctx context.Context, dir string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to check bucket %s", s.bucket).
			Mark(ierr.ErrHTTPClient)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return ierr.WithError(err).
			WithHintf("failed to create bucket %s", s.bucket).
			Mark(ierr.ErrHTTPClient)
	}
	s.logger.Infow("created storage bucket", "bucket", s.bucket)
	return nil
}

func (s *MinioStorage) Save(ctx context.Context, data []byte, dir, filename string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}

	key := filename
	if s.prefix != "" {
		key = path.Join(s.prefix, filename)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypePDF,
	})
	if err != nil {
		return "", ierr.WithError(err).WithHint("failed to upload document").
			WithMessagef("bucket:%s, key:%s", s.bucket, key).
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Debugw("document uploaded", "bucket", s.bucket, "key", key, "size", len(data))
	return PublicURL(s.baseURL, filename), nil
}
