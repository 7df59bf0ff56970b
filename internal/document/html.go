package document

import (
	"context"
	"html"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
)

// A4 with 20mm top/bottom and 15mm left/right margins, in inches
const (
	a4WidthIn        = 8.27
	a4HeightIn       = 11.69
	marginVertical   = 0.787
	marginHorizontal = 0.591
)

const htmlShell = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, Helvetica, sans-serif; font-size: 11pt; line-height: 1.4; }
table { border-collapse: collapse; width: 100%; }
td { border: 1px solid #999; padding: 4px 6px; vertical-align: top; }
p { margin: 0 0 6pt 0; }
</style>
</head>
<body>
`

// HTMLRenderer turns the template into HTML and prints it with headless Chrome
type HTMLRenderer struct {
	chromePath string
	logger     *logger.Logger
}

func NewHTMLRenderer(chromePath string, log *logger.Logger) *HTMLRenderer {
	return &HTMLRenderer{chromePath: chromePath, logger: log}
}

func (r *HTMLRenderer) Name() types.DocumentRenderer {
	return types.DocumentRendererHTML
}

func (r *HTMLRenderer) Render(ctx context.Context, tmpl *Loaded, fields map[string]any) ([]byte, error) {
	doc, err := BuildHTML(tmpl, fields)
	if err != nil {
		return nil, err
	}
	return r.print(ctx, doc)
}

// BuildHTML produces the final HTML page with placeholders substituted
func BuildHTML(tmpl *Loaded, fields map[string]any) (string, error) {
	var body string
	switch tmpl.Kind {
	case KindDocx:
		converted, err := DocxToHTML(tmpl.Content)
		if err != nil {
			return "", err
		}
		body = htmlShell + converted + "</body>\n</html>\n"
	case KindHTML:
		body = string(tmpl.Content)
		if !strings.Contains(strings.ToLower(body), "<html") {
			body = htmlShell + body + "</body>\n</html>\n"
		}
	default:
		return "", ierr.NewErrorf("html renderer cannot use a %s template", tmpl.Kind).
			WithHint("Upload the document template as a Word or HTML file").
			Mark(ierr.ErrConfiguration)
	}

	renderer := render.NewRenderer(render.SingleBrace, render.WithEscaper(html.EscapeString))
	return renderer.Render(collapseSplitPlaceholders(body), fields), nil
}

func (r *HTMLRenderer) print(ctx context.Context, doc string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(marginVertical).
				WithMarginBottom(marginVertical).
				WithMarginLeft(marginHorizontal).
				WithMarginRight(marginHorizontal).
				WithPrintBackground(true).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("headless chrome print failed").
			WithHint("Document conversion failed").
			Mark(ierr.ErrSystem)
	}
	return pdf, nil
}
