package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/billing-notifier/internal/payment"
)

// StubLinkResolver implements payment.LinkResolver and records every request
type StubLinkResolver struct {
	mu       sync.Mutex
	requests []*payment.LinkRequest
	failFor  map[int64]error
}

var _ payment.LinkResolver = (*StubLinkResolver)(nil)

func NewStubLinkResolver() *StubLinkResolver {
	return &StubLinkResolver{failFor: make(map[int64]error)}
}

// FailFor makes requests for invoiceID return err
func (r *StubLinkResolver) FailFor(invoiceID int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[invoiceID] = err
}

func (r *StubLinkResolver) RequestPaymentLink(ctx context.Context, req *payment.LinkRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *req
	r.requests = append(r.requests, &cp)
	if err := r.failFor[req.InvoiceID]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://pagos.example.com/link/%s", req.Reference), nil
}

// Requests returns the requests received so far
func (r *StubLinkResolver) Requests() []*payment.LinkRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*payment.LinkRequest(nil), r.requests...)
}

func (r *StubLinkResolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
	r.failFor = make(map[int64]error)
}
