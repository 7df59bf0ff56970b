package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{db: db, logger: logger}
}

func (r *clientRepository) Get(ctx context.Context, id int64) (*client.Client, error) {
	query := `SELECT id, tenant_id, primer_nombre, segundo_nombre, primer_apellido,
		segundo_apellido, correo, identificacion
		FROM clientes WHERE id = $1 AND deleted_at IS NULL`

	var c client.Client
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewErrorf("client %d not found", id).
				WithHint("Client not found").
				WithReportableDetails(map[string]any{"client_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get client").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}
