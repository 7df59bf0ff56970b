package testutil

import (
	"context"
	"sync"
)

// InMemoryClientPackageStore implements clientpackage.Repository
type InMemoryClientPackageStore struct {
	mu        sync.RWMutex
	graceDays map[int64]*int
	err       error
}

func NewInMemoryClientPackageStore() *InMemoryClientPackageStore {
	return &InMemoryClientPackageStore{
		graceDays: make(map[int64]*int),
	}
}

// SetGraceDays stores the grace period of a package. Nil means the package has none.
func (s *InMemoryClientPackageStore) SetGraceDays(clientPackageID int64, days *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graceDays[clientPackageID] = days
}

// FailWith makes every lookup return err until it is reset with nil
func (s *InMemoryClientPackageStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemoryClientPackageStore) GetGraceDays(ctx context.Context, clientPackageID int64) (*int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.graceDays[clientPackageID], nil
}

func (s *InMemoryClientPackageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graceDays = make(map[int64]*int)
	s.err = nil
}
