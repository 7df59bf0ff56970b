package repository

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/cache"
	"github.com/flexprice/billing-notifier/internal/domain/clientpackage"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	"github.com/flexprice/billing-notifier/internal/types"
)

// Lookups repeated for every invoice of a cohort are served from the process
// cache. Misses and errors are never cached.

type cachedTenantRepository struct {
	next  tenant.Repository
	cache cache.Cache
}

func NewCachedTenantRepository(next tenant.Repository, c cache.Cache) tenant.Repository {
	return &cachedTenantRepository{next: next, cache: c}
}

func (r *cachedTenantRepository) Get(ctx context.Context, id int64) (*tenant.Tenant, error) {
	key := cache.GenerateKey(cache.PrefixTenant, id)
	if v, ok := r.cache.Get(ctx, key); ok {
		if t, ok := v.(*tenant.Tenant); ok {
			return t, nil
		}
	}

	t, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, t, 0)
	return t, nil
}

type cachedTemplateRepository struct {
	next  template.Repository
	cache cache.Cache
}

func NewCachedTemplateRepository(next template.Repository, c cache.Cache) template.Repository {
	return &cachedTemplateRepository{next: next, cache: c}
}

func (r *cachedTemplateRepository) GetActive(ctx context.Context, tenantID int64, docType types.DocumentType) (*template.Template, error) {
	key := cache.GenerateKey(cache.PrefixTemplate, tenantID, docType)
	if v, ok := r.cache.Get(ctx, key); ok {
		if t, ok := v.(*template.Template); ok {
			return t, nil
		}
	}

	t, err := r.next.GetActive(ctx, tenantID, docType)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, t, 0)
	return t, nil
}

type cachedClientPackageRepository struct {
	next  clientpackage.Repository
	cache cache.Cache
}

// graceDays boxes the nullable value so a cached nil is distinguishable from a miss
type graceDays struct {
	days *int
}

func NewCachedClientPackageRepository(next clientpackage.Repository, c cache.Cache) clientpackage.Repository {
	return &cachedClientPackageRepository{next: next, cache: c}
}

func (r *cachedClientPackageRepository) GetGraceDays(ctx context.Context, clientPackageID int64) (*int, error) {
	key := cache.GenerateKey(cache.PrefixGraceDays, clientPackageID)
	if v, ok := r.cache.Get(ctx, key); ok {
		if g, ok := v.(graceDays); ok {
			return g.days, nil
		}
	}

	days, err := r.next.GetGraceDays(ctx, clientPackageID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, graceDays{days: days}, 0)
	return days, nil
}
