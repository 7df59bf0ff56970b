package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// InMemoryStore implements a generic in-memory store
type InMemoryStore[K comparable, T any] struct {
	mu    sync.RWMutex
	items map[K]T
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[K comparable, T any]() *InMemoryStore[K, T] {
	return &InMemoryStore[K, T]{
		items: make(map[K]T),
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[K, T]) Create(ctx context.Context, id K, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewErrorf("item %v already exists", id).Mark(ierr.ErrAlreadyExists)
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[K, T]) Get(ctx context.Context, id K) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, ierr.NewErrorf("item %v not found", id).Mark(ierr.ErrNotFound)
}

// List returns the items passing filterFn, sorted by sortFn
func (s *InMemoryStore[K, T]) List(ctx context.Context, filterFn FilterFunc[T], sortFn SortFunc[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []T
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}
	return result
}

// Update applies fn to the stored item under the write lock
func (s *InMemoryStore[K, T]) Update(ctx context.Context, id K, fn func(T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return ierr.NewErrorf("item %v not found", id).Mark(ierr.ErrNotFound)
	}
	return fn(item)
}

// Clear removes all items from the store
func (s *InMemoryStore[K, T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[K]T)
}
