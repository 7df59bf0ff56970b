package invoice

import (
	"context"
	"time"
)

// PageFilter selects one page of a billing-date cohort
type PageFilter struct {
	// BillingDate is any instant of the cohort day; stores match the whole UTC day
	BillingDate time.Time
	// OnlyMissingDocument restricts the page to invoices without a stored document
	OnlyMissingDocument bool
	// AfterID switches to keyset pagination when non zero
	AfterID int64
	Limit   int
	Offset  int
}

// Repository defines the persistence operations the notification pipeline needs
type Repository interface {
	// FetchPage returns the page ordered by id ascending and the total size of the filtered cohort
	FetchPage(ctx context.Context, filter *PageFilter) ([]*Invoice, int, error)

	// Get retrieves a non deleted invoice by ID
	Get(ctx context.Context, id int64) (*Invoice, error)

	// UpdatePaymentLink persists the payment link of an invoice
	UpdatePaymentLink(ctx context.Context, id int64, link string) error

	// UpdateDocumentURL persists the document URL. It must not overwrite an existing URL.
	UpdateDocumentURL(ctx context.Context, id int64, url string) error

	// MarkEmailSent sets the email flag and timestamp in a single update. It
	// fails with AlreadyExists when the invoice was already marked and with
	// InvalidOperation when it has no document.
	MarkEmailSent(ctx context.Context, id int64, sentAt time.Time) error
}
