package service

import (
	"context"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/samber/lo"
)

// invoiceContext is what both pipelines read besides the invoice itself
type invoiceContext struct {
	invoice  *invoice.Invoice
	client   *client.Client
	tenant   *tenant.Tenant
	template *template.Template
	dueDate  time.Time
}

// loadInvoiceContext resolves the client, active template, tenant and due date.
// Missing rows come back marked ErrNotFound so callers skip the record. When
// graceRequired is false a failed grace period lookup falls back to the billing day.
func loadInvoiceContext(ctx context.Context, params ServiceParams, inv *invoice.Invoice, graceRequired bool) (*invoiceContext, error) {
	c, err := params.ClientRepo.Get(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}

	tmpl, err := params.TemplateRepo.GetActive(ctx, inv.TenantID, params.Config.Notification.DocumentType)
	if err != nil {
		return nil, err
	}

	t, err := params.TenantRepo.Get(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	graceDays, err := params.ClientPackageRepo.GetGraceDays(ctx, inv.ClientPackageID)
	if err != nil && !ierr.IsNotFound(err) {
		if graceRequired {
			return nil, err
		}
		params.Logger.Warnw("grace period lookup failed, using the billing day as due date",
			"invoice_id", inv.ID,
			"client_package_id", inv.ClientPackageID,
			"error", err,
		)
		graceDays = nil
	}

	return &invoiceContext{
		invoice:  inv,
		client:   c,
		tenant:   t,
		template: tmpl,
		dueDate:  PaymentDueDate(inv.BillingDate, graceDays),
	}, nil
}

// PaymentDueDate is the billing day plus the grace period. A missing or non
// positive grace period leaves the billing day unchanged.
func PaymentDueDate(billingDate time.Time, graceDays *int) time.Time {
	return types.AddDaysUTC(types.StartOfDayUTC(billingDate), lo.FromPtrOr(graceDays, 0))
}

// fields merges everything the templates may reference
func (ic *invoiceContext) fields(paymentLink string) map[string]any {
	return render.InvoiceFields(&render.InvoiceData{
		Invoice:     ic.invoice,
		Client:      ic.client,
		Tenant:      ic.tenant,
		DueDate:     ic.dueDate,
		PaymentLink: paymentLink,
	})
}

// withStepTimeout bounds one external call of the per record pipeline
func withStepTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
