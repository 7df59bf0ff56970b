package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/idempotency"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/shopspring/decimal"
)

const generateLinkPath = "/api/v1/pagos/generar-link-pago"

// LinkRequest describes the invoice a payment link is requested for
type LinkRequest struct {
	InvoiceID   int64
	Amount      decimal.Decimal
	Reference   string
	Description string
	ClientEmail string
	ClientName  string
	DueDate     time.Time
}

// LinkResolver obtains payment URLs from the payments service
type LinkResolver interface {
	RequestPaymentLink(ctx context.Context, req *LinkRequest) (string, error)
}

// amount encodes a decimal as a bare JSON number
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

type linkRequestBody struct {
	InvoiceID   int64  `json:"cuentaCobroId"`
	Amount      amount `json:"valorTotal"`
	Reference   string    `json:"referencia"`
	Description string    `json:"descripcion"`
	ClientEmail string    `json:"correoCliente"`
	ClientName  string    `json:"nombreCliente"`
	DueDate     time.Time `json:"fechaLimitePago"`
}

type linkResponseBody struct {
	PaymentLink string `json:"linkPago"`
}

type httpLinkResolver struct {
	baseURL     string
	client      httpclient.Client
	idempotency *idempotency.Generator
	logger      *logger.Logger
}

// NewLinkResolver builds a resolver against payments.base_url
func NewLinkResolver(cfg *config.Configuration, client httpclient.Client, log *logger.Logger) LinkResolver {
	return &httpLinkResolver{
		baseURL:     strings.TrimRight(cfg.Payments.BaseURL, "/"),
		client:      client,
		idempotency: idempotency.NewGenerator(),
		logger:      log,
	}
}

func (r *httpLinkResolver) RequestPaymentLink(ctx context.Context, req *LinkRequest) (string, error) {
	if req == nil || req.InvoiceID <= 0 {
		return "", ierr.NewError("invoice id is required").
			WithHint("A payment link needs the invoice it belongs to").
			Mark(ierr.ErrValidation)
	}

	body, err := json.Marshal(linkRequestBody{
		InvoiceID:   req.InvoiceID,
		Amount:      amount(req.Amount),
		Reference:   req.Reference,
		Description: req.Description,
		ClientEmail: req.ClientEmail,
		ClientName:  req.ClientName,
		DueDate:     req.DueDate.UTC(),
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Could not encode the payment link request").
			Mark(ierr.ErrSystem)
	}

	key := r.idempotency.GenerateKey(idempotency.ScopePaymentLink, map[string]interface{}{
		"reference": req.Reference,
		"amount":    req.Amount.String(),
	})

	r.logger.Debugw("requesting payment link", "invoice_id", req.InvoiceID, "reference", req.Reference)

	resp, err := r.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    r.baseURL + generateLinkPath,
		Headers: map[string]string{
			"Idempotency-Key": key,
		},
		Body: body,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHintf("Payment link request failed for invoice %d", req.InvoiceID).
			WithReportableDetails(map[string]any{"invoice_id": req.InvoiceID}).
			Mark(ierr.ErrHTTPClient)
	}

	var out linkResponseBody
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", ierr.WithError(err).
			WithHint("The payments service returned an unreadable response").
			Mark(ierr.ErrHTTPClient)
	}
	if strings.TrimSpace(out.PaymentLink) == "" {
		return "", ierr.NewErrorf("payments service returned an empty link for invoice %d", req.InvoiceID).
			WithHint("The payments service did not return a link").
			Mark(ierr.ErrHTTPClient)
	}

	r.logger.Infow("payment link generated", "invoice_id", req.InvoiceID)
	return out.PaymentLink, nil
}
