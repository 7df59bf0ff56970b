package types

import (
	"fmt"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// DocumentRenderer selects the strategy used to turn a template into a PDF
type DocumentRenderer string

const (
	// DocumentRendererOffice merges fields into a .docx and converts it with an office suite
	DocumentRendererOffice DocumentRenderer = "office"
	// DocumentRendererHTML converts the template to HTML and prints it with headless Chrome
	DocumentRendererHTML DocumentRenderer = "html"
	// DocumentRendererTypst compiles a .typ template with the field map as input
	DocumentRendererTypst DocumentRenderer = "typst"
)

func (r DocumentRenderer) Validate() error {
	switch r {
	case DocumentRendererOffice, DocumentRendererHTML, DocumentRendererTypst:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid document renderer: %s", r)).
		WithHint("document.renderer must be one of office, html or typst").
		Mark(ierr.ErrValidation)
}

// DocumentType is the template category looked up per tenant
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "cuenta_cobro"
)
