package render

import (
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceFields(t *testing.T) {
	billing := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	data := &InvoiceData{
		Invoice: &invoice.Invoice{
			ID:          42,
			BillingDate: billing,
			TotalAmount: decimal.NewFromInt(150000),
			PaymentLink: lo.ToPtr("https://pay.example.com/stored"),
		},
		Client: &client.Client{
			FirstName:      "Ana",
			LastName:       "Gómez",
			SecondLastName: "Ruiz",
			Identification: "1020304050",
			Email:          "ana@example.com",
		},
		Tenant:  &tenant.Tenant{Name: "Acme Internet"},
		DueDate: billing.AddDate(0, 0, 10),
	}

	fields := InvoiceFields(data)
	assert.Equal(t, "42", fields[FieldInvoiceID])
	assert.Equal(t, "Ana Gómez Ruiz", fields[FieldClientFullName])
	assert.Equal(t, "noviembre de 2025", fields[FieldInvoicePeriod])
	assert.Equal(t, "https://pay.example.com/stored", fields[FieldInvoicePaymentLink])

	body := Render(
		"Hola {{cliente.primer_nombre}}, {{empresa.nombre}} le cobra {{cuenta.valor_total}} hasta el {{cuenta.fecha_limite_pago}}. Cuenta {{cuenta.id}}",
		fields, DoubleBrace)
	assert.Equal(t, "Hola Ana, Acme Internet le cobra $ 150.000 hasta el 11 de noviembre de 2025. Cuenta 42", body)
}

func TestInvoiceFieldsFreshLinkWins(t *testing.T) {
	fields := InvoiceFields(&InvoiceData{
		Invoice:     &invoice.Invoice{ID: 1, PaymentLink: lo.ToPtr("old")},
		PaymentLink: "new",
	})
	assert.Equal(t, "new", fields[FieldInvoicePaymentLink])
}
