package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSave(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(&config.StorageConfig{
		BasePath: root,
		BaseURL:  "https://files.example.com/pdfs/",
	}, logger.NewNopLogger())

	ctx := context.Background()
	require.NoError(t, s.EnsureDirectory(ctx, "tenant-1/2025-11"))

	url, err := s.Save(ctx, []byte("%PDF-1.7"), "tenant-1/2025-11", "12_900123.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/pdfs/12_900123.pdf", url)

	data, err := os.ReadFile(filepath.Join(root, "tenant-1/2025-11", "12_900123.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "tenant-1/2025-11"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStorageAbsoluteDir(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(&config.StorageConfig{BasePath: "/ignored", BaseURL: "http://x"}, logger.NewNopLogger())

	url, err := s.Save(context.Background(), []byte("pdf"), dir, "1_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://x/1_1.pdf", url)
	assert.FileExists(t, filepath.Join(dir, "1_1.pdf"))
}

func TestLocalStorageRejectsPaths(t *testing.T) {
	s := NewLocalStorage(&config.StorageConfig{BaseURL: "http://x"}, logger.NewNopLogger())
	_, err := s.Save(context.Background(), []byte("pdf"), t.TempDir(), "../escape.pdf")
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestNewStorageUnknownType(t *testing.T) {
	cfg := &config.Configuration{Storage: config.StorageConfig{Type: types.StorageType("ftp")}}
	_, err := NewStorage(cfg, logger.NewNopLogger())
	assert.Error(t, err)
}
