package invoice

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceMarkers(t *testing.T) {
	inv := &Invoice{ID: 17}
	assert.False(t, inv.HasPaymentLink())
	assert.False(t, inv.HasDocument())

	inv.PaymentLink = lo.ToPtr("")
	inv.DocumentURL = lo.ToPtr("")
	assert.False(t, inv.HasPaymentLink())
	assert.False(t, inv.HasDocument())

	inv.PaymentLink = lo.ToPtr("https://pay.example.com/17")
	inv.DocumentURL = lo.ToPtr("https://files.example.com/17_123.pdf")
	assert.True(t, inv.HasPaymentLink())
	assert.True(t, inv.HasDocument())
}

func TestReferenceAndFilename(t *testing.T) {
	inv := &Invoice{ID: 1042}
	assert.Equal(t, "CC-1042", inv.Reference())
	assert.Equal(t, "1042_900123456.pdf", inv.DocumentFilename("900123456"))
}
