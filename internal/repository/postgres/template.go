package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/billing-notifier/internal/domain/template"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
	"github.com/flexprice/billing-notifier/internal/types"
)

type templateRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTemplateRepository(db *postgres.DB, logger *logger.Logger) template.Repository {
	return &templateRepository{db: db, logger: logger}
}

func (r *templateRepository) GetActive(ctx context.Context, tenantID int64, docType types.DocumentType) (*template.Template, error) {
	query := `SELECT id, tenant_id, tipo, activo, asunto_correo, cuerpo_correo,
		plantilla_pdf, plantilla_pdf_contenido, ruta_pdf
		FROM plantillas
		WHERE tenant_id = $1 AND tipo = $2 AND activo = true AND deleted_at IS NULL
		ORDER BY id ASC
		LIMIT 1`

	var t template.Template
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, tenantID, docType); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewErrorf("no active %s template for tenant %d", docType, tenantID).
				WithHint("No active template configured for the tenant").
				WithReportableDetails(map[string]any{
					"tenant_id":     tenantID,
					"document_type": docType,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get template").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}
