package template

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestDocumentTemplate(t *testing.T) {
	tmpl := &Template{}
	assert.True(t, tmpl.DocumentTemplate().IsEmpty())
	assert.Equal(t, "", tmpl.OutputPath())

	tmpl.DocumentPath = lo.ToPtr("  ")
	assert.True(t, tmpl.DocumentTemplate().IsEmpty())

	tmpl.DocumentPath = lo.ToPtr("plantillas/cuenta_cobro.docx")
	tmpl.DocumentOutputPath = lo.ToPtr(" cuentas/2025 ")
	assert.False(t, tmpl.DocumentTemplate().IsEmpty())
	assert.Equal(t, "plantillas/cuenta_cobro.docx", tmpl.DocumentTemplate().Path)
	assert.Equal(t, "cuentas/2025", tmpl.OutputPath())

	inline := &Template{DocumentContent: []byte("PK")}
	assert.False(t, inline.DocumentTemplate().IsEmpty())
}
