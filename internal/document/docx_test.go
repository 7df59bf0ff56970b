package document

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Señor(a) {cliente.</w:t></w:r><w:r><w:t>primer_nombre}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Total: $</w:t></w:r><w:r><w:t>{cuenta.valor_total}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:rPr><w:i/></w:rPr><w:t>{empresa.nombre}</w:t></w:r><w:r><w:br/><w:t>{cuenta.otro}</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Celda</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
	`</w:body></w:document>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   body,
		"word/footer1.xml":    `<w:ftr xmlns:w="x"><w:p><w:r><w:t>{empresa.nombre}</w:t></w:r></w:p></w:ftr>`,
		"word/styles.xml":     `<w:styles xmlns:w="x">{cliente.primer_nombre}</w:styles>`,
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml", "word/footer1.xml", "word/styles.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readPart(t *testing.T, archive []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

var sampleFields = map[string]any{
	"cliente.primer_nombre": "Ana & Luis",
	"cuenta.valor_total":    decimal.NewFromInt(150000),
	"empresa.nombre":        "Acme <Internet>",
}

func TestCollapseSplitPlaceholders(t *testing.T) {
	in := `<w:t>{cliente.</w:t></w:r><w:r><w:t>primer_nombre}</w:t>`
	assert.Equal(t, `<w:t>{cliente.primer_nombre}</w:t>`, collapseSplitPlaceholders(in))

	untouched := `<w:t>{cliente.primer_nombre}</w:t>`
	assert.Equal(t, untouched, collapseSplitPlaceholders(untouched))
}

func TestMergeDocx(t *testing.T) {
	merged, err := MergeDocx(buildDocx(t, sampleBody), sampleFields)
	require.NoError(t, err)

	body := readPart(t, merged, "word/document.xml")
	assert.Contains(t, body, "Señor(a) Ana &amp; Luis")
	assert.Contains(t, body, "Total: $ 150.000")
	assert.NotContains(t, body, "$$")
	assert.Contains(t, body, "Acme &lt;Internet&gt;")
	assert.Contains(t, body, "{cuenta.otro}")

	assert.Contains(t, readPart(t, merged, "word/footer1.xml"), "Acme &lt;Internet&gt;")
	assert.Contains(t, readPart(t, merged, "word/styles.xml"), "{cliente.primer_nombre}")
}

func TestMergeDocxInvalidArchive(t *testing.T) {
	_, err := MergeDocx([]byte("not a zip"), sampleFields)
	assert.Error(t, err)
}

func TestDocxToHTML(t *testing.T) {
	out, err := DocxToHTML(buildDocx(t, sampleBody))
	require.NoError(t, err)

	assert.Contains(t, out, "<p><strong>Señor(a) {cliente.</strong>primer_nombre}</p>")
	assert.Contains(t, out, "<em>{empresa.nombre}</em>")
	assert.Contains(t, out, "<br/>{cuenta.otro}")
	assert.Contains(t, out, "<table><tr><td><p>Celda</p>\n</td></tr></table>")
}

func TestBuildHTMLFromDocx(t *testing.T) {
	doc, err := BuildHTML(&Loaded{Kind: KindDocx, Content: buildDocx(t, sampleBody)}, sampleFields)
	require.NoError(t, err)

	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, "Señor(a) Ana &amp; Luis")
	assert.Contains(t, doc, "Total: $ 150.000")
	assert.Contains(t, doc, "Acme &lt;Internet&gt;")
}

func TestBuildHTMLFromHTML(t *testing.T) {
	doc, err := BuildHTML(&Loaded{Kind: KindHTML, Content: []byte(`<h1>Hola {cliente.primer_nombre}</h1>`)}, sampleFields)
	require.NoError(t, err)
	assert.Contains(t, doc, "<h1>Hola Ana &amp; Luis</h1>")
	assert.Contains(t, doc, "<body>")

	_, err = BuildHTML(&Loaded{Kind: KindTypst, Content: []byte("#x")}, sampleFields)
	assert.Error(t, err)
}
