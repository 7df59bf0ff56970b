package storage

import (
	"context"
	"strings"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
)

const contentTypePDF = "application/pdf"

// Storage persists generated documents and returns the URL clients download them from
type Storage interface {
	// EnsureDirectory prepares the destination (directory, bucket) before a save
	EnsureDirectory(ctx context.Context, dir string) error

	// Save writes data under dir/filename and returns baseURL + "/" + filename
	Save(ctx context.Context, data []byte, dir, filename string) (string, error)
}

// NewStorage picks the backend configured in storage.type
func NewStorage(cfg *config.Configuration, log *logger.Logger) (Storage, error) {
	switch cfg.Storage.Type {
	case types.StorageLocal:
		return NewLocalStorage(&cfg.Storage, log), nil
	case types.StorageS3:
		return NewS3Storage(&cfg.Storage, log)
	case types.StorageMinio:
		return NewMinioStorage(&cfg.Storage, log)
	default:
		return nil, ierr.NewErrorf("unsupported storage type: %s", cfg.Storage.Type).
			WithHint("storage.type must be one of local, s3, minio").
			Mark(ierr.ErrValidation)
	}
}

// PublicURL joins the configured base URL and the stored file name
func PublicURL(baseURL, filename string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(filename, "/")
}

func validateFilename(filename string) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return ierr.NewErrorf("invalid file name %q", filename).
			WithHint("The document file name must be a plain name").
			Mark(ierr.ErrValidation)
	}
	return nil
}
