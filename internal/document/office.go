package document

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
)

// OfficeRenderer merges fields into the .docx and converts it with LibreOffice
type OfficeRenderer struct {
	binary  string
	workDir string
	logger  *logger.Logger
}

func NewOfficeRenderer(binary, workDir string, log *logger.Logger) *OfficeRenderer {
	if binary == "" {
		binary = "soffice"
	}
	return &OfficeRenderer{binary: binary, workDir: workDir, logger: log}
}

func (r *OfficeRenderer) Name() types.DocumentRenderer {
	return types.DocumentRendererOffice
}

func (r *OfficeRenderer) Render(ctx context.Context, tmpl *Loaded, fields map[string]any) ([]byte, error) {
	if tmpl.Kind != KindDocx {
		return nil, ierr.NewErrorf("office renderer needs a .docx template, got %s", tmpl.Kind).
			WithHint("Upload the document template as a Word file").
			Mark(ierr.ErrConfiguration)
	}

	merged, err := MergeDocx(tmpl.Content, fields)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(r.workDir, "office-*")
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Could not create a work directory").Mark(ierr.ErrSystem)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "documento.docx")
	if err := os.WriteFile(input, merged, 0o600); err != nil {
		return nil, ierr.WithError(err).WithHint("Could not write the merged document").Mark(ierr.ErrSystem)
	}

	// A private profile lets several conversions run side by side
	profile := "-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(dir, "profile"))
	cmd := exec.CommandContext(ctx, r.binary, profile, "--headless", "--convert-to", "pdf", "--outdir", dir, input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("office conversion failed").
			WithHint("Document conversion failed").
			WithReportableDetails(map[string]any{"stderr": stderr.String()}).
			Mark(ierr.ErrSystem)
	}

	output := filepath.Join(dir, strings.TrimSuffix(filepath.Base(input), ".docx")+".pdf")
	pdf, err := os.ReadFile(output)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Document conversion produced no output").
			WithReportableDetails(map[string]any{"stderr": stderr.String()}).
			Mark(ierr.ErrSystem)
	}
	return pdf, nil
}
