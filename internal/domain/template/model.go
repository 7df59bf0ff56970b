package template

import (
	"strings"

	"github.com/flexprice/billing-notifier/internal/types"
)

// Source is the document template. It is either a path on disk resolved
// against the template root, or the raw template bytes. Content wins when both
// are set.
type Source struct {
	Path    string
	Content []byte
}

// IsEmpty reports whether neither a path nor inline content is available
func (s Source) IsEmpty() bool {
	return strings.TrimSpace(s.Path) == "" && len(s.Content) == 0
}

// Template is the active notification template of a tenant for one document type
type Template struct {
	ID                 int64              `db:"id" json:"id"`
	TenantID           int64              `db:"tenant_id" json:"tenant_id"`
	DocumentType       types.DocumentType `db:"tipo" json:"document_type"`
	Active             bool               `db:"activo" json:"active"`
	EmailSubject       string             `db:"asunto_correo" json:"email_subject,omitempty"`
	EmailBodyTemplate  string             `db:"cuerpo_correo" json:"email_body_template"`
	DocumentPath       *string            `db:"plantilla_pdf" json:"document_path,omitempty"`
	DocumentContent    []byte             `db:"plantilla_pdf_contenido" json:"-"`
	DocumentOutputPath *string            `db:"ruta_pdf" json:"document_output_path,omitempty"`
}

// DocumentTemplate normalizes the stored path or bytes into a Source
func (t *Template) DocumentTemplate() Source {
	src := Source{Content: t.DocumentContent}
	if t.DocumentPath != nil {
		src.Path = *t.DocumentPath
	}
	return src
}

// OutputPath returns the configured output location, empty when unset
func (t *Template) OutputPath() string {
	if t.DocumentOutputPath == nil {
		return ""
	}
	return strings.TrimSpace(*t.DocumentOutputPath)
}
