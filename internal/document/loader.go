package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/flexprice/billing-notifier/internal/domain/template"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/h2non/filetype"
)

// Kind is the detected template format
type Kind string

const (
	KindDocx  Kind = "docx"
	KindHTML  Kind = "html"
	KindTypst Kind = "typst"
)

// Loaded is a template source resolved to bytes
type Loaded struct {
	// Name is the file name, or "inline" for stored content
	Name string
	// Path is set only when the content was read from disk
	Path    string
	Content []byte
	Kind    Kind
}

// Loader resolves template sources: inline content wins, else the path is read
// relative to the template root
type Loader struct {
	root string
}

func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

func (l *Loader) Load(ctx context.Context, src template.Source) (*Loaded, error) {
	if src.IsEmpty() {
		return nil, ierr.NewError("template has no document source").
			WithHint("Configure a document template path or upload its content").
			Mark(ierr.ErrConfiguration)
	}

	if len(src.Content) > 0 {
		name := "inline"
		if src.Path != "" {
			name = filepath.Base(src.Path)
		}
		return &Loaded{
			Name:    name,
			Content: src.Content,
			Kind:    detectKind(src.Path, src.Content),
		}, nil
	}

	path := strings.TrimSpace(src.Path)
	if !filepath.IsAbs(path) && l.root != "" {
		path = filepath.Join(l.root, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Document template %s could not be read", src.Path).
			WithReportableDetails(map[string]any{"path": path}).
			Mark(ierr.ErrConfiguration)
	}
	if len(content) == 0 {
		return nil, ierr.NewErrorf("document template %s is empty", path).
			WithHint("The document template file is empty").
			Mark(ierr.ErrConfiguration)
	}

	return &Loaded{
		Name:    filepath.Base(path),
		Path:    path,
		Content: content,
		Kind:    detectKind(path, content),
	}, nil
}

// detectKind sniffs binary formats first and falls back to the extension
func detectKind(path string, content []byte) Kind {
	if t, err := filetype.Match(content); err == nil {
		switch t.Extension {
		case "docx":
			return KindDocx
		case "zip":
			if isDocxArchive(content) {
				return KindDocx
			}
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return KindDocx
	case ".typ":
		return KindTypst
	case ".html", ".htm":
		return KindHTML
	}

	trimmed := bytes.TrimSpace(content)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return KindHTML
	}
	if bytes.HasPrefix(trimmed, []byte("#")) {
		return KindTypst
	}
	return KindHTML
}

// isPDF reports whether data looks like a PDF document
func isPDF(data []byte) bool {
	return filetype.Is(data, "pdf")
}
