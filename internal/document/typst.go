package document

import (
	"context"
	"encoding/json"
	"os"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/flexprice/billing-notifier/internal/typst"
)

// TypstRenderer compiles a .typ template. Fields reach the template already
// formatted, as a JSON object read with json(sys.inputs.path).
type TypstRenderer struct {
	compiler typst.Compiler
	workDir  string
	logger   *logger.Logger
}

func NewTypstRenderer(compiler typst.Compiler, workDir string, log *logger.Logger) *TypstRenderer {
	return &TypstRenderer{compiler: compiler, workDir: workDir, logger: log}
}

func (r *TypstRenderer) Name() types.DocumentRenderer {
	return types.DocumentRendererTypst
}

func (r *TypstRenderer) Render(ctx context.Context, tmpl *Loaded, fields map[string]any) ([]byte, error) {
	if tmpl.Kind != KindTypst {
		return nil, ierr.NewErrorf("typst renderer needs a .typ template, got %s", tmpl.Kind).
			WithHint("Upload the document template as a Typst file").
			Mark(ierr.ErrConfiguration)
	}

	data, err := json.Marshal(FormatFields(fields))
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Could not encode document fields").Mark(ierr.ErrSystem)
	}

	// Inline content has no file on disk; typst needs one
	path := tmpl.Path
	if path == "" {
		f, err := os.CreateTemp(r.workDir, "plantilla-*.typ")
		if err != nil {
			return nil, ierr.WithError(err).WithHint("Could not create a work file").Mark(ierr.ErrSystem)
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(tmpl.Content); err != nil {
			f.Close()
			return nil, ierr.WithError(err).WithHint("Could not create a work file").Mark(ierr.ErrSystem)
		}
		f.Close()
		path = f.Name()
	}

	return r.compiler.CompileTemplate(ctx, path, data)
}

// FormatFields renders every value the way placeholders would show it
func FormatFields(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = render.FormatValue(v)
	}
	return out
}
