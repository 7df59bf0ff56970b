package testutil

import (
	"context"
	"path"
	"sync"

	"github.com/flexprice/billing-notifier/internal/storage"
)

// InMemoryStorage implements storage.Storage and keeps saved files in memory
type InMemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	dirs    map[string]bool
	files   map[string][]byte
}

func NewInMemoryStorage(baseURL string) *InMemoryStorage {
	return &InMemoryStorage{
		baseURL: baseURL,
		dirs:    make(map[string]bool),
		files:   make(map[string][]byte),
	}
}

func (s *InMemoryStorage) EnsureDirectory(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dir] = true
	return nil
}

func (s *InMemoryStorage) Save(ctx context.Context, data []byte, dir, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path.Join(dir, filename)] = append([]byte(nil), data...)
	return storage.PublicURL(s.baseURL, filename), nil
}

// File returns the saved content of dir/filename
func (s *InMemoryStorage) File(dir, filename string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path.Join(dir, filename)]
	return data, ok
}

// FileCount is the number of files saved so far
func (s *InMemoryStorage) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *InMemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = make(map[string]bool)
	s.files = make(map[string][]byte)
}
