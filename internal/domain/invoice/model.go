package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a "cuenta de cobro": a bill issued to a client for one billing date.
// The pipeline only ever writes PaymentLink, DocumentURL and the email markers.
type Invoice struct {
	ID              int64           `db:"id" json:"id"`
	TenantID        int64           `db:"tenant_id" json:"tenant_id"`
	ClientID        int64           `db:"cliente_id" json:"client_id"`
	ClientPackageID int64           `db:"cliente_paquete_id" json:"client_package_id"`
	BillingDate     time.Time       `db:"fecha_cobro" json:"billing_date"`
	TotalAmount     decimal.Decimal `db:"valor_total" json:"total_amount"`
	PaymentLink     *string         `db:"link_pago" json:"payment_link,omitempty"`
	DocumentURL     *string         `db:"url_pdf" json:"document_url,omitempty"`
	EmailSent       bool            `db:"si_envio_correo" json:"email_sent"`
	EmailSentAt     *time.Time      `db:"fecha_envio_correo" json:"email_sent_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time      `db:"deleted_at" json:"-"`
}

// HasPaymentLink reports whether a link was already obtained
func (i *Invoice) HasPaymentLink() bool {
	return i.PaymentLink != nil && *i.PaymentLink != ""
}

// HasDocument reports whether the PDF was already generated and stored
func (i *Invoice) HasDocument() bool {
	return i.DocumentURL != nil && *i.DocumentURL != ""
}

// IsDeleted reports whether the invoice was soft deleted
func (i *Invoice) IsDeleted() bool {
	return i.DeletedAt != nil
}

// Reference is the payment reference sent to the payments service
func (i *Invoice) Reference() string {
	return fmt.Sprintf("CC-%d", i.ID)
}

// DocumentFilename is the name the generated PDF is stored under
func (i *Invoice) DocumentFilename(clientIdentification string) string {
	return fmt.Sprintf("%d_%s.pdf", i.ID, clientIdentification)
}
