package testutil

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[int64, *client.Client]
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		InMemoryStore: NewInMemoryStore[int64, *client.Client](),
	}
}

func (s *InMemoryClientStore) Seed(ctx context.Context, clients ...*client.Client) {
	for _, c := range clients {
		_ = s.InMemoryStore.Create(ctx, c.ID, c)
	}
}

func (s *InMemoryClientStore) Get(ctx context.Context, id int64) (*client.Client, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Client %d not found", id).
			Mark(ierr.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}
