package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsStable(t *testing.T) {
	g := NewGenerator()
	a := g.GenerateKey(ScopePaymentLink, map[string]interface{}{"invoice_id": 7, "amount": "150000"})
	b := g.GenerateKey(ScopePaymentLink, map[string]interface{}{"amount": "150000", "invoice_id": 7})

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "payment_link-"))
	assert.True(t, g.ValidateKey(ScopePaymentLink, map[string]interface{}{"invoice_id": 7, "amount": "150000"}, a))
}

func TestGenerateKeyDiffers(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"invoice_id": 7}

	assert.NotEqual(t, g.GenerateKey(ScopePaymentLink, params), g.GenerateKey(ScopeInvoiceEmail, params))
	assert.NotEqual(t, params, map[string]interface{}{"invoice_id": 8})
	assert.NotEqual(t,
		g.GenerateKey(ScopePaymentLink, params),
		g.GenerateKey(ScopePaymentLink, map[string]interface{}{"invoice_id": 8}))
}
