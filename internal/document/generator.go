package document

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/storage"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/flexprice/billing-notifier/internal/typst"
)

// Request asks for one rendered and stored document
type Request struct {
	InvoiceID int64
	Template  template.Source
	Fields    map[string]any
	// OutputDir is where the storage backend places the file
	OutputDir string
	Filename  string
}

// Generator turns a template and its fields into a stored PDF and returns its URL
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// Renderer produces PDF bytes from a loaded template
type Renderer interface {
	Render(ctx context.Context, tmpl *Loaded, fields map[string]any) ([]byte, error)
	Name() types.DocumentRenderer
}

type generator struct {
	loader   *Loader
	renderer Renderer
	storage  storage.Storage
	timeout  time.Duration
	logger   *logger.Logger
}

// NewGenerator wires the renderer selected by document.renderer
func NewGenerator(cfg *config.Configuration, store storage.Storage, log *logger.Logger) (Generator, error) {
	renderer, err := NewRenderer(&cfg.Document, log)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithRenderer(NewLoader(cfg.Document.TemplateRoot), renderer, store, cfg.Document.Timeout, log), nil
}

func NewGeneratorWithRenderer(loader *Loader, renderer Renderer, store storage.Storage, timeout time.Duration, log *logger.Logger) Generator {
	return &generator{
		loader:   loader,
		renderer: renderer,
		storage:  store,
		timeout:  timeout,
		logger:   log,
	}
}

// NewRenderer picks the PDF strategy
func NewRenderer(cfg *config.DocumentConfig, log *logger.Logger) (Renderer, error) {
	switch cfg.Renderer {
	case types.DocumentRendererOffice:
		return NewOfficeRenderer(cfg.OfficeBinary, cfg.WorkDir, log), nil
	case types.DocumentRendererHTML:
		return NewHTMLRenderer(cfg.ChromePath, log), nil
	case types.DocumentRendererTypst:
		return NewTypstRenderer(typst.NewCompiler(log, cfg.TypstBinary, cfg.FontDir, cfg.WorkDir), cfg.WorkDir, log), nil
	default:
		return nil, ierr.NewErrorf("unsupported document renderer: %s", cfg.Renderer).
			WithHint("document.renderer must be one of office, html or typst").
			Mark(ierr.ErrValidation)
	}
}

func (g *generator) Generate(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	tmpl, err := g.loader.Load(ctx, req.Template)
	if err != nil {
		return "", err
	}

	renderCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	pdf, err := g.renderer.Render(renderCtx, tmpl, req.Fields)
	if err != nil {
		return "", err
	}
	if !isPDF(pdf) {
		return "", ierr.NewErrorf("renderer %s did not produce a pdf", g.renderer.Name()).
			WithHint("Document conversion produced an invalid file").
			WithReportableDetails(map[string]any{"invoice_id": req.InvoiceID, "size": len(pdf)}).
			Mark(ierr.ErrSystem)
	}

	if err := g.storage.EnsureDirectory(ctx, req.OutputDir); err != nil {
		return "", err
	}

	url, err := g.storage.Save(ctx, pdf, req.OutputDir, req.Filename)
	if err != nil {
		return "", err
	}

	g.logger.Infow("document generated",
		"invoice_id", req.InvoiceID,
		"renderer", g.renderer.Name(),
		"template", tmpl.Name,
		"size", len(pdf),
		"duration_ms", time.Since(start).Milliseconds(),
		"url", url,
	)
	return url, nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return ierr.NewError("document request is required").Mark(ierr.ErrValidation)
	}
	if req.Template.IsEmpty() {
		return ierr.NewErrorf("invoice %d: template has no document source", req.InvoiceID).
			WithHint("Configure a document template for this tenant").
			Mark(ierr.ErrConfiguration)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return ierr.NewErrorf("invoice %d: template has no output path", req.InvoiceID).
			WithHint("Configure the document output path for this tenant").
			Mark(ierr.ErrConfiguration)
	}
	if strings.TrimSpace(req.Filename) == "" {
		return ierr.NewError("document file name is required").Mark(ierr.ErrValidation)
	}
	return nil
}
