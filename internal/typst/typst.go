package typst

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
)

// DataInputKey is the sys.inputs key holding the path of the JSON data file.
// Templates read it with: #let data = json(sys.inputs.path)
const DataInputKey = "path"

type Compiler interface {
	Compile(ctx context.Context, opts CompileOpts) (string, error)
	CompileToBytes(ctx context.Context, opts CompileOpts) ([]byte, error)
	CompileTemplate(ctx context.Context, templatePath string, data []byte, opts ...CompileOptsBuilder) ([]byte, error)
}

// compiler runs the typst binary
type compiler struct {
	logger *logger.Logger
	// Path to the typst binary
	binaryPath string
	// Directory where fonts are stored
	fontDir string
	// Directory for intermediate and output files
	workDir string
}

// CompileOpts contains options for compiling a Typst document
type CompileOpts struct {
	InputFile string
	// OutputFile is created inside the work dir; empty means a generated name
	OutputFile string
	FontDirs   []string
	ExtraArgs  []string
}

type CompileOptsBuilder func(c *CompileOpts)

func WithOutputFile(outputFile string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.OutputFile = outputFile
	}
}

func WithFontDirs(fontDirs ...string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.FontDirs = fontDirs
	}
}

func WithExtraArgs(extraArgs ...string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.ExtraArgs = extraArgs
	}
}

// NewCompiler creates a compiler. Empty values fall back to "typst" and the OS temp dir.
func NewCompiler(logger *logger.Logger, binaryPath, fontDir, workDir string) Compiler {
	if binaryPath == "" {
		binaryPath = "typst"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &compiler{
		logger:     logger,
		binaryPath: binaryPath,
		fontDir:    fontDir,
		workDir:    workDir,
	}
}

// Compile compiles a Typst document to PDF and returns the output path
func (c *compiler) Compile(ctx context.Context, opts CompileOpts) (string, error) {
	var outputFile string
	if opts.OutputFile != "" {
		outputFile = filepath.Join(c.workDir, opts.OutputFile)
	} else {
		tmpFile, err := os.CreateTemp(c.workDir, "typst-*.pdf")
		if err != nil {
			return "", ierr.WithError(err).
				WithMessage("failed to create temporary output file").
				WithHint("template error").Mark(ierr.ErrSystem)
		}
		tmpFile.Close()
		outputFile = tmpFile.Name()
	}

	var fontDirs []string
	if c.fontDir != "" {
		fontDirs = append(fontDirs, c.fontDir)
	}
	fontDirs = append(fontDirs, opts.FontDirs...)

	args := []string{"compile", "--root", "/"}
	for _, dir := range fontDirs {
		args = append(args, "--font-path", dir)
	}
	args = append(args, opts.ExtraArgs...)
	args = append(args, opts.InputFile, outputFile)

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputFile)
		return "", ierr.WithError(err).
			WithMessage("typst compilation failed").
			WithHint("typst error").
			WithReportableDetails(map[string]any{
				"stderr": stderr.String(),
			}).
			Mark(ierr.ErrSystem)
	}

	c.logger.Debugw("typst document compiled", "input", opts.InputFile, "output", outputFile)
	return outputFile, nil
}

// CompileToBytes compiles a Typst document and returns the PDF content
func (c *compiler) CompileToBytes(ctx context.Context, opts CompileOpts) ([]byte, error) {
	pdfPath, err := c.Compile(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer os.Remove(pdfPath)

	return os.ReadFile(pdfPath)
}

// CompileTemplate compiles the template at templatePath with data (a JSON
// document) exposed through sys.inputs.path
func (c *compiler) CompileTemplate(
	ctx context.Context,
	templatePath string,
	data []byte,
	opts ...CompileOptsBuilder,
) ([]byte, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, ierr.WithError(err).
			WithMessagef("template not found: %s", templatePath).
			WithHint("template error").Mark(ierr.ErrConfiguration)
	}

	jsonFile, err := os.CreateTemp(c.workDir, "typst-*.json")
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create temporary json file").
			WithHint("template error").Mark(ierr.ErrSystem)
	}
	defer os.Remove(jsonFile.Name())

	if _, err := jsonFile.Write(data); err != nil {
		jsonFile.Close()
		return nil, ierr.WithError(err).
			WithMessage("failed to write data to json file").
			WithHint("template error").Mark(ierr.ErrSystem)
	}
	jsonFile.Close()

	compileOpts := CompileOpts{
		InputFile: templatePath,
		ExtraArgs: []string{"--input", fmt.Sprintf("%s=%s", DataInputKey, jsonFile.Name())},
	}
	for _, opt := range opts {
		opt(&compileOpts)
	}

	return c.CompileToBytes(ctx, compileOpts)
}
