package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
)

// Field keys shared by email and document templates
const (
	FieldClientFullName       = "cliente.nombre_completo"
	FieldClientFirstName      = "cliente.primer_nombre"
	FieldClientLastName       = "cliente.primer_apellido"
	FieldClientIdentification = "cliente.identificacion"
	FieldClientEmail          = "cliente.correo"
	FieldTenantName           = "empresa.nombre"
	FieldInvoiceID            = "cuenta.id"
	FieldInvoiceTotal         = "cuenta.valor_total"
	FieldInvoicePeriod        = "cuenta.fecha_cobro"
	FieldInvoiceDueDate       = "cuenta.fecha_limite_pago"
	FieldInvoicePaymentLink   = "cuenta.link_pago"
	FieldInvoiceDocumentURL   = "cuenta.url_documento"
)

// InvoiceData is everything the renderer may show about one invoice
type InvoiceData struct {
	Invoice     *invoice.Invoice
	Client      *client.Client
	Tenant      *tenant.Tenant
	DueDate     time.Time
	PaymentLink string
}

// InvoiceFields builds the flat field map for an invoice. Identifiers are strings
// so they are never rendered as amounts.
func InvoiceFields(d *InvoiceData) map[string]any {
	fields := map[string]any{
		FieldInvoicePaymentLink: d.PaymentLink,
		FieldInvoiceDueDate:     d.DueDate,
	}

	if inv := d.Invoice; inv != nil {
		fields[FieldInvoiceID] = strconv.FormatInt(inv.ID, 10)
		fields[FieldInvoiceTotal] = inv.TotalAmount
		fields[FieldInvoicePeriod] = FormatMonthYear(inv.BillingDate)
		fields[FieldInvoiceDocumentURL] = inv.DocumentURL
		if d.PaymentLink == "" && inv.HasPaymentLink() {
			fields[FieldInvoicePaymentLink] = *inv.PaymentLink
		}
	}

	if c := d.Client; c != nil {
		fields[FieldClientFullName] = c.FullName()
		fields[FieldClientFirstName] = c.FirstName
		fields[FieldClientLastName] = c.LastName
		fields[FieldClientIdentification] = c.Identification
		fields[FieldClientEmail] = c.Email
	}

	if t := d.Tenant; t != nil {
		fields[FieldTenantName] = t.Name
	}

	return fields
}

// DefaultSubject is used when a template has no subject of its own
func DefaultSubject(billingDate time.Time) string {
	return fmt.Sprintf("Cuenta de cobro - %s %d", MonthName(billingDate), billingDate.UTC().Year())
}
