package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
	"github.com/flexprice/billing-notifier/internal/types"
)

const invoiceColumns = `id, tenant_id, cliente_id, cliente_paquete_id, fecha_cobro, valor_total,
	link_pago, url_pdf, si_envio_correo, fecha_envio_correo, created_at, updated_at, deleted_at`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

// cohortWhere builds the shared WHERE clause of the page and count queries
func cohortWhere(filter *invoice.PageFilter) (string, []interface{}) {
	start, end := types.DayRangeUTC(filter.BillingDate)
	conds := []string{
		"deleted_at IS NULL",
		"fecha_cobro >= $1",
		"fecha_cobro < $2",
	}
	args := []interface{}{start, end}

	if filter.OnlyMissingDocument {
		conds = append(conds, "(url_pdf IS NULL OR url_pdf = '')")
	}
	return strings.Join(conds, " AND "), args
}

func (r *invoiceRepository) FetchPage(ctx context.Context, filter *invoice.PageFilter) ([]*invoice.Invoice, int, error) {
	if filter == nil || filter.Limit <= 0 {
		return nil, 0, ierr.NewError("page limit must be positive").
			WithHint("Invalid page size").
			Mark(ierr.ErrValidation)
	}

	where, args := cohortWhere(filter)
	q := r.db.GetQuerier(ctx)

	var total int
	if err := q.GetContext(ctx, &total, "SELECT COUNT(*) FROM cuentas_cobro WHERE "+where, args...); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to count invoices for billing date").
			WithReportableDetails(map[string]any{"billing_date": filter.BillingDate}).
			Mark(ierr.ErrDatabase)
	}

	pageArgs := append([]interface{}{}, args...)
	query := fmt.Sprintf("SELECT %s FROM cuentas_cobro WHERE %s", invoiceColumns, where)
	if filter.AfterID > 0 {
		pageArgs = append(pageArgs, filter.AfterID)
		query += fmt.Sprintf(" AND id > $%d", len(pageArgs))
	}
	pageArgs = append(pageArgs, filter.Limit)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", len(pageArgs))
	if filter.AfterID == 0 && filter.Offset > 0 {
		pageArgs = append(pageArgs, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(pageArgs))
	}

	var rows []*invoice.Invoice
	if err := q.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to fetch invoices for billing date").
			WithReportableDetails(map[string]any{
				"billing_date": filter.BillingDate,
				"offset":       filter.Offset,
				"after_id":     filter.AfterID,
			}).
			Mark(ierr.ErrDatabase)
	}

	return rows, total, nil
}

func (r *invoiceRepository) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := fmt.Sprintf("SELECT %s FROM cuentas_cobro WHERE id = $1 AND deleted_at IS NULL", invoiceColumns)
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, invoice.NotFound(id)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) UpdatePaymentLink(ctx context.Context, id int64, link string) error {
	query := `UPDATE cuentas_cobro SET link_pago = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, link)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save payment link").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return expectOneRow(res, func() error { return invoice.NotFound(id) })
}

func (r *invoiceRepository) UpdateDocumentURL(ctx context.Context, id int64, url string) error {
	query := `UPDATE cuentas_cobro SET url_pdf = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND (url_pdf IS NULL OR url_pdf = '')`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, url)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save document url").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return expectOneRow(res, func() error {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return invoice.DocumentAlreadySet(id)
	})
}

func (r *invoiceRepository) MarkEmailSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `UPDATE cuentas_cobro SET si_envio_correo = true, fecha_envio_correo = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND NOT si_envio_correo
			AND url_pdf IS NOT NULL AND url_pdf <> ''`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, sentAt.UTC())
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to mark email as sent").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return expectOneRow(res, func() error {
		inv, getErr := r.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if inv.EmailSent {
			return invoice.EmailAlreadySent(id)
		}
		return invoice.NoDocument(id)
	})
}

// expectOneRow calls onMiss when the statement matched nothing
func expectOneRow(res sql.Result, onMiss func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return onMiss()
	}
	return nil
}
