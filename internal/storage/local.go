package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
)

// LocalStorage writes documents to a directory served by a web server at base_url
type LocalStorage struct {
	basePath string
	baseURL  string
	logger   *logger.Logger
}

func NewLocalStorage(cfg *config.StorageConfig, log *logger.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: cfg.BasePath,
		baseURL:  cfg.BaseURL,
		logger:   log,
	}
}

func (s *LocalStorage) resolve(dir string) string {
	if filepath.IsAbs(dir) || s.basePath == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(s.basePath, dir)
}

func (s *LocalStorage) EnsureDirectory(ctx context.Context, dir string) error {
	path := s.resolve(dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return ierr.WithError(err).
			WithHintf("Could not create directory %s", path).
			Mark(ierr.ErrSystem)
	}
	return nil
}

// Save writes through a temp file and a rename so readers never see a partial PDF
func (s *LocalStorage) Save(ctx context.Context, data []byte, dir, filename string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.resolve(dir)
	tmp, err := os.CreateTemp(path, "."+filename+".*")
	if err != nil {
		return "", ierr.WithError(err).
			WithHintf("Could not write to %s", path).
			Mark(ierr.ErrSystem)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", ierr.WithError(err).WithHint("Could not write the document").Mark(ierr.ErrSystem)
	}
	if err := tmp.Close(); err != nil {
		return "", ierr.WithError(err).WithHint("Could not write the document").Mark(ierr.ErrSystem)
	}

	target := filepath.Join(path, filename)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", ierr.WithError(err).WithHint("Could not write the document").Mark(ierr.ErrSystem)
	}

	s.logger.Debugw("document stored", "path", target, "size", len(data))
	return PublicURL(s.baseURL, filename), nil
}
