package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
)

type tenantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return &tenantRepository{db: db, logger: logger}
}

func (r *tenantRepository) Get(ctx context.Context, id int64) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t,
		`SELECT id, nombre FROM tenants WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewErrorf("tenant %d not found", id).
				WithHint("Tenant not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get tenant").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}
