package service

import (
	"fmt"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	"github.com/flexprice/billing-notifier/internal/testutil"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	testTenantID        int64 = 1
	testClientPackageID int64 = 70
	testOutputDir             = "cuentas/2025-11"
)

// pipelineSuite wires the real services over the in-memory stores
type pipelineSuite struct {
	testutil.BaseServiceTestSuite
	params      ServiceParams
	walker      CohortWalker
	generation  GenerationService
	dispatch    DispatchService
	billingDate time.Time
}

func (s *pipelineSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()

	s.params = NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetSentry(),
		stores.InvoiceRepo,
		stores.ClientRepo,
		stores.TenantRepo,
		stores.TemplateRepo,
		stores.ClientPackageRepo,
		s.GetLinkResolver(),
		s.GetDocumentGenerator(),
		s.GetEmailDispatcher(),
		s.GetEventPublisher(),
	)
	s.walker = NewCohortWalker(s.params)
	s.generation = NewGenerationService(s.params, s.walker)
	s.dispatch = NewDispatchService(s.params, s.walker)
	s.billingDate = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	stores.TenantRepo.Seed(s.GetContext(), &tenant.Tenant{ID: testTenantID, Name: "Servicios Andinos SAS"})
	stores.TemplateRepo.Seed(s.GetContext(), &template.Template{
		ID:                 1,
		TenantID:           testTenantID,
		DocumentType:       types.DocumentTypeInvoice,
		Active:             true,
		EmailBodyTemplate:  "<p>Hola {{cliente.nombre_completo}}, su cuenta por {{ cuenta.valor_total }} vence el {{cuenta.fecha_limite_pago}}. Pague en {{cuenta.link_pago}}</p>",
		DocumentContent:    []byte("<p>Cuenta {cuenta.id} de {cliente.nombre_completo} por ${cuenta.valor_total}</p>"),
		DocumentOutputPath: lo.ToPtr(testOutputDir),
	})
}

// clientFor is the client seeded for an invoice id
func clientFor(invoiceID int64) *client.Client {
	return &client.Client{
		ID:             1000 + invoiceID,
		TenantID:       testTenantID,
		FirstName:      "Ana",
		LastName:       "Gómez",
		Email:          fmt.Sprintf("cliente%d@example.com", invoiceID),
		Identification: fmt.Sprintf("9001%04d", invoiceID),
	}
}

// seedInvoice stores an invoice of the test cohort together with its client
func (s *pipelineSuite) seedInvoice(id int64, mutate ...func(*invoice.Invoice)) *invoice.Invoice {
	c := clientFor(id)
	s.GetStores().ClientRepo.Seed(s.GetContext(), c)

	inv := &invoice.Invoice{
		ID:              id,
		TenantID:        testTenantID,
		ClientID:        c.ID,
		ClientPackageID: testClientPackageID,
		BillingDate:     s.billingDate.Add(10 * time.Hour),
		TotalAmount:     decimal.NewFromInt(150000),
		CreatedAt:       s.GetNow(),
		UpdatedAt:       s.GetNow(),
	}
	for _, m := range mutate {
		m(inv)
	}
	s.GetStores().InvoiceRepo.Seed(s.GetContext(), inv)
	return inv
}

func (s *pipelineSuite) seedCohort(n int) {
	for i := 1; i <= n; i++ {
		s.seedInvoice(int64(i))
	}
}

// stored reads the persisted state of an invoice
func (s *pipelineSuite) stored(id int64) *invoice.Invoice {
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return inv
}

func withDocument(url string) func(*invoice.Invoice) {
	return func(inv *invoice.Invoice) {
		inv.DocumentURL = lo.ToPtr(url)
	}
}

func withPaymentLink(link string) func(*invoice.Invoice) {
	return func(inv *invoice.Invoice) {
		inv.PaymentLink = lo.ToPtr(link)
	}
}

func withEmailSent(at time.Time) func(*invoice.Invoice) {
	return func(inv *invoice.Invoice) {
		inv.EmailSent = true
		inv.EmailSentAt = lo.ToPtr(at)
	}
}
