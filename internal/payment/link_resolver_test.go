package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type capturedRequest struct {
	method string
	path   string
	key    string
	body   map[string]any
}

type LinkResolverSuite struct {
	suite.Suite
	server   *httptest.Server
	mu       sync.Mutex
	captured []capturedRequest
	status   int
	reply    string
	resolver LinkResolver
	req      *LinkRequest
}

func TestLinkResolver(t *testing.T) {
	suite.Run(t, new(LinkResolverSuite))
}

func (s *LinkResolverSuite) SetupTest() {
	s.captured = nil
	s.status = http.StatusOK
	s.reply = `{"linkPago":"https://pay.example.com/15"}`
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		s.mu.Lock()
		s.captured = append(s.captured, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			key:    r.Header.Get("Idempotency-Key"),
			body:   body,
		})
		status, reply := s.status, s.reply
		s.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))

	cfg := &config.Configuration{Payments: config.PaymentsConfig{BaseURL: s.server.URL + "/"}}
	client := httpclient.NewDefaultClient(httpclient.ClientConfig{Timeout: time.Second}, nil)
	s.resolver = NewLinkResolver(cfg, client, logger.NewNopLogger())
	s.req = &LinkRequest{
		InvoiceID:   15,
		Amount:      decimal.NewFromInt(150000),
		Reference:   "CC-15",
		Description: "Cuenta de cobro noviembre de 2025",
		ClientEmail: "ana@example.com",
		ClientName:  "Ana Gómez",
		DueDate:     time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC),
	}
}

func (s *LinkResolverSuite) TearDownTest() {
	s.server.Close()
}

func (s *LinkResolverSuite) TestRequestPaymentLink() {
	link, err := s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Require().NoError(err)
	s.Equal("https://pay.example.com/15", link)

	s.Require().Len(s.captured, 1)
	got := s.captured[0]
	s.Equal(http.MethodPost, got.method)
	s.Equal(generateLinkPath, got.path)
	s.NotEmpty(got.key)
	s.Equal(float64(15), got.body["cuentaCobroId"])
	s.Equal(float64(150000), got.body["valorTotal"])
	s.Equal("CC-15", got.body["referencia"])
	s.Equal("ana@example.com", got.body["correoCliente"])
	s.Equal("Ana Gómez", got.body["nombreCliente"])
	s.Equal("2025-11-11T00:00:00Z", got.body["fechaLimitePago"])
}

func (s *LinkResolverSuite) TestAmountIsSentAsNumber() {
	s.req.Amount = decimal.RequireFromString("98500.50")
	_, err := s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Require().NoError(err)

	s.Require().Len(s.captured, 1)
	s.Equal(98500.5, s.captured[0].body["valorTotal"])
}

func (s *LinkResolverSuite) TestSameInvoiceSameKey() {
	_, err := s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Require().NoError(err)
	_, err = s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Require().NoError(err)

	s.Require().Len(s.captured, 2)
	s.Equal(s.captured[0].key, s.captured[1].key)
}

func (s *LinkResolverSuite) TestServerErrorPropagates() {
	s.status = http.StatusBadRequest
	s.reply = `{"message":"monto invalido"}`

	_, err := s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Require().Error(err)
	s.True(ierr.IsHTTPClient(err))
}

func (s *LinkResolverSuite) TestEmptyLinkIsAnError() {
	s.reply = `{"linkPago":""}`

	_, err := s.resolver.RequestPaymentLink(context.Background(), s.req)
	s.Error(err)
}

func TestRequestPaymentLinkRequiresInvoice(t *testing.T) {
	r := NewLinkResolver(&config.Configuration{}, httpclient.NewDefaultClient(httpclient.ClientConfig{}, nil), logger.NewNopLogger())
	_, err := r.RequestPaymentLink(context.Background(), &LinkRequest{})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
