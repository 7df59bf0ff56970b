package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[int64, *invoice.Invoice]

	mu        sync.Mutex
	pageCalls []PageCall
	fetchErr  error
}

// PageCall records one FetchPage call and the number of rows it returned
type PageCall struct {
	Filter invoice.PageFilter
	Rows   int
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[int64, *invoice.Invoice](),
	}
}

// copyInvoice detaches returned rows so callers only change state through the repository
func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}

	c := *inv
	c.PaymentLink = copyPtr(inv.PaymentLink)
	c.DocumentURL = copyPtr(inv.DocumentURL)
	c.EmailSentAt = copyPtr(inv.EmailSentAt)
	c.DeletedAt = copyPtr(inv.DeletedAt)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Seed stores invoices as given
func (s *InMemoryInvoiceStore) Seed(ctx context.Context, invoices ...*invoice.Invoice) {
	for _, inv := range invoices {
		_ = s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
	}
}

// FailFetch makes every following FetchPage return err. Nil clears it.
func (s *InMemoryInvoiceStore) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// PageCalls returns the FetchPage calls made so far
func (s *InMemoryInvoiceStore) PageCalls() []PageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PageCall(nil), s.pageCalls...)
}

func (s *InMemoryInvoiceStore) FetchPage(ctx context.Context, filter *invoice.PageFilter) ([]*invoice.Invoice, int, error) {
	s.mu.Lock()
	fetchErr := s.fetchErr
	s.mu.Unlock()
	if fetchErr != nil {
		return nil, 0, fetchErr
	}

	start, end := types.DayRangeUTC(filter.BillingDate)
	cohort := s.InMemoryStore.List(ctx, func(_ context.Context, inv *invoice.Invoice) bool {
		if inv.IsDeleted() {
			return false
		}
		if inv.BillingDate.Before(start) || !inv.BillingDate.Before(end) {
			return false
		}
		return !filter.OnlyMissingDocument || !inv.HasDocument()
	}, func(a, b *invoice.Invoice) bool {
		return a.ID < b.ID
	})

	page := lo.Filter(cohort, func(inv *invoice.Invoice, _ int) bool {
		return inv.ID > filter.AfterID
	})
	if filter.AfterID == 0 && filter.Offset > 0 {
		page = lo.Drop(page, filter.Offset)
	}
	if filter.Limit > 0 && len(page) > filter.Limit {
		page = page[:filter.Limit]
	}

	s.mu.Lock()
	s.pageCalls = append(s.pageCalls, PageCall{Filter: *filter, Rows: len(page)})
	s.mu.Unlock()

	return lo.Map(page, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), len(cohort), nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || inv.IsDeleted() {
		return nil, invoice.NotFound(id)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) UpdatePaymentLink(ctx context.Context, id int64, link string) error {
	return s.update(ctx, id, func(inv *invoice.Invoice) error {
		inv.PaymentLink = lo.ToPtr(link)
		return nil
	})
}

func (s *InMemoryInvoiceStore) UpdateDocumentURL(ctx context.Context, id int64, url string) error {
	return s.update(ctx, id, func(inv *invoice.Invoice) error {
		if inv.HasDocument() {
			return invoice.DocumentAlreadySet(id)
		}
		inv.DocumentURL = lo.ToPtr(url)
		return nil
	})
}

func (s *InMemoryInvoiceStore) MarkEmailSent(ctx context.Context, id int64, sentAt time.Time) error {
	return s.update(ctx, id, func(inv *invoice.Invoice) error {
		if inv.EmailSent {
			return invoice.EmailAlreadySent(id)
		}
		if !inv.HasDocument() {
			return invoice.NoDocument(id)
		}
		inv.EmailSent = true
		inv.EmailSentAt = lo.ToPtr(sentAt)
		return nil
	})
}

func (s *InMemoryInvoiceStore) update(ctx context.Context, id int64, fn func(*invoice.Invoice) error) error {
	err := s.InMemoryStore.Update(ctx, id, func(inv *invoice.Invoice) error {
		if inv.IsDeleted() {
			return invoice.NotFound(id)
		}
		if err := fn(inv); err != nil {
			return err
		}
		inv.UpdatedAt = time.Now().UTC()
		return nil
	})
	if ierr.IsNotFound(err) {
		return invoice.NotFound(id)
	}
	return err
}

// Clear removes all invoices and recorded calls
func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCalls = nil
	s.fetchErr = nil
}
