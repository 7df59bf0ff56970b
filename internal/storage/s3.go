package storage

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
)

// S3Storage uploads documents to a bucket. base_url must point at the bucket
// prefix (public bucket, CDN or website endpoint).
type S3Storage struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
	logger  *logger.Logger
}

func NewS3Storage(cfg *config.StorageConfig, log *logger.Logger) (*S3Storage, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.S3.Region),
	)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to load aws config").
			Mark(ierr.ErrHTTPClient)
	}

	return &S3Storage{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.S3.Bucket,
		prefix:  cfg.S3.KeyPrefix,
		baseURL: cfg.BaseURL,
		logger:  log,
	}, nil
}

func (s *S3Storage) objectKey(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

// EnsureDirectory checks the bucket is reachable. S3 has no directories.
func (s *S3Storage) EnsureDirectory(ctx context.Context, dir string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Bucket %s is not reachable", s.bucket).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (s *S3Storage) Save(ctx context.Context, data []byte, dir, filename string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}

	key := s.objectKey(filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypePDF),
	})
	if err != nil {
		return "", ierr.WithError(err).WithHint("failed to upload document").
			WithMessagef("bucket:%s, key:%s", s.bucket, key).
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Debugw("document uploaded", "bucket", s.bucket, "key", key, "size", len(data))
	return PublicURL(s.baseURL, filename), nil
}
