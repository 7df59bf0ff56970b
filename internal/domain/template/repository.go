package template

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/types"
)

type Repository interface {
	// GetActive returns the first active template for the tenant and type,
	// or an ErrNotFound marked error
	GetActive(ctx context.Context, tenantID int64, docType types.DocumentType) (*Template, error)
}
