package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/billing-notifier/internal/document"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
)

// StubRenderer implements document.Renderer without an external process. It
// returns a minimal PDF carrying the invoice id and can be told to fail or
// panic for specific invoices.
type StubRenderer struct {
	mu      sync.Mutex
	calls   []map[string]any
	failFor map[string]error
	panicOn map[string]bool
}

var _ document.Renderer = (*StubRenderer)(nil)

func NewStubRenderer() *StubRenderer {
	return &StubRenderer{
		failFor: make(map[string]error),
		panicOn: make(map[string]bool),
	}
}

// FailFor makes rendering of invoiceID return err
func (r *StubRenderer) FailFor(invoiceID int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[fmt.Sprint(invoiceID)] = err
}

// PanicOn makes rendering of invoiceID panic
func (r *StubRenderer) PanicOn(invoiceID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panicOn[fmt.Sprint(invoiceID)] = true
}

func (r *StubRenderer) Name() types.DocumentRenderer {
	return types.DocumentRendererHTML
}

func (r *StubRenderer) Render(ctx context.Context, tmpl *document.Loaded, fields map[string]any) ([]byte, error) {
	id, _ := fields[render.FieldInvoiceID].(string)

	r.mu.Lock()
	r.calls = append(r.calls, fields)
	failErr, shouldPanic := r.failFor[id], r.panicOn[id]
	r.mu.Unlock()

	if shouldPanic {
		panic(fmt.Sprintf("renderer crashed for invoice %s", id))
	}
	if failErr != nil {
		return nil, failErr
	}
	if ctx.Err() != nil {
		return nil, ierr.WithError(ctx.Err()).
			WithHint("Document conversion timed out").
			Mark(ierr.ErrSystem)
	}

	body := render.Render(string(tmpl.Content), fields, render.SingleBrace)
	return []byte("%PDF-1.4\n% invoice " + id + "\n" + body + "\n%%EOF"), nil
}

// Calls returns the field maps of every render call
func (r *StubRenderer) Calls() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.calls...)
}

func (r *StubRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.failFor = make(map[string]error)
	r.panicOn = make(map[string]bool)
}
