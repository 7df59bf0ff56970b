package invoice

import (
	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// NotFound is returned by stores when an invoice does not exist or was soft deleted
func NotFound(id int64) error {
	return ierr.NewErrorf("invoice %d not found", id).
		WithHint("Invoice not found").
		WithReportableDetails(map[string]any{"invoice_id": id}).
		Mark(ierr.ErrNotFound)
}

// DocumentAlreadySet is returned when a second document URL is written for an invoice
func DocumentAlreadySet(id int64) error {
	return ierr.NewErrorf("invoice %d already has a document url", id).
		WithHint("The invoice already has a generated document").
		WithReportableDetails(map[string]any{"invoice_id": id}).
		Mark(ierr.ErrAlreadyExists)
}

// EmailAlreadySent is returned when the sent marker of an invoice is written twice
func EmailAlreadySent(id int64) error {
	return ierr.NewErrorf("invoice %d was already emailed", id).
		WithHint("The invoice email was already sent").
		WithReportableDetails(map[string]any{"invoice_id": id}).
		Mark(ierr.ErrAlreadyExists)
}

// NoDocument is returned when an invoice without a document is marked as emailed
func NoDocument(id int64) error {
	return ierr.NewErrorf("invoice %d has no document", id).
		WithHint("An email can only be marked as sent once the document exists").
		WithReportableDetails(map[string]any{"invoice_id": id}).
		Mark(ierr.ErrInvalidOperation)
}
