package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/billing-notifier/internal/domain/clientpackage"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
)

type clientPackageRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientPackageRepository(db *postgres.DB, logger *logger.Logger) clientpackage.Repository {
	return &clientPackageRepository{db: db, logger: logger}
}

// GetGraceDays returns nil when the package is unknown or has no grace period
func (r *clientPackageRepository) GetGraceDays(ctx context.Context, clientPackageID int64) (*int, error) {
	var days sql.NullInt64
	err := r.db.GetQuerier(ctx).GetContext(ctx, &days,
		`SELECT dias_gracia FROM clientes_paquetes WHERE id = $1 AND deleted_at IS NULL`, clientPackageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get grace days").
			WithReportableDetails(map[string]any{"client_package_id": clientPackageID}).
			Mark(ierr.ErrDatabase)
	}
	if !days.Valid {
		return nil, nil
	}
	d := int(days.Int64)
	return &d, nil
}
