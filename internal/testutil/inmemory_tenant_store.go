package testutil

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// InMemoryTenantStore implements tenant.Repository
type InMemoryTenantStore struct {
	*InMemoryStore[int64, *tenant.Tenant]
}

func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{
		InMemoryStore: NewInMemoryStore[int64, *tenant.Tenant](),
	}
}

func (s *InMemoryTenantStore) Seed(ctx context.Context, tenants ...*tenant.Tenant) {
	for _, t := range tenants {
		_ = s.InMemoryStore.Create(ctx, t.ID, t)
	}
}

func (s *InMemoryTenantStore) Get(ctx context.Context, id int64) (*tenant.Tenant, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Tenant %d not found", id).
			Mark(ierr.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}
