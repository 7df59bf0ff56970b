package testutil

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/domain/template"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
)

// InMemoryTemplateStore implements template.Repository
type InMemoryTemplateStore struct {
	*InMemoryStore[int64, *template.Template]
}

func NewInMemoryTemplateStore() *InMemoryTemplateStore {
	return &InMemoryTemplateStore{
		InMemoryStore: NewInMemoryStore[int64, *template.Template](),
	}
}

func (s *InMemoryTemplateStore) Seed(ctx context.Context, templates ...*template.Template) {
	for _, t := range templates {
		_ = s.InMemoryStore.Create(ctx, t.ID, t)
	}
}

// GetActive returns the active template with the lowest id, like the first match
// of the sql query
func (s *InMemoryTemplateStore) GetActive(ctx context.Context, tenantID int64, docType types.DocumentType) (*template.Template, error) {
	matches := s.InMemoryStore.List(ctx, func(_ context.Context, t *template.Template) bool {
		return t.Active && t.TenantID == tenantID && t.DocumentType == docType
	}, func(a, b *template.Template) bool {
		return a.ID < b.ID
	})

	if len(matches) == 0 {
		return nil, ierr.NewErrorf("no active %s template for tenant %d", docType, tenantID).
			WithHint("No active template configured for the tenant").
			Mark(ierr.ErrNotFound)
	}
	cp := *matches[0]
	return &cp, nil
}
