package typst

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/stretchr/testify/suite"
)

type TypstCompilerSuite struct {
	suite.Suite
	tempDir  string
	compiler Compiler
}

func TestTypstCompiler(t *testing.T) {
	suite.Run(t, new(TypstCompilerSuite))
}

func (s *TypstCompilerSuite) SetupTest() {
	if _, err := exec.LookPath("typst"); err != nil {
		s.T().Skip("Skipping tests because typst is not available in the system")
		return
	}

	s.tempDir = s.T().TempDir()
	s.compiler = NewCompiler(logger.NewNopLogger(), "typst", "", s.tempDir)
}

func (s *TypstCompilerSuite) TestNewCompilerDefaults() {
	c := NewCompiler(logger.NewNopLogger(), "", "", "").(*compiler)
	s.Equal("typst", c.binaryPath)
	s.Equal(os.TempDir(), c.workDir)
}

func (s *TypstCompilerSuite) TestBasicTypstCompilation() {
	input := filepath.Join(s.tempDir, "basic.typ")
	s.Require().NoError(os.WriteFile(input, []byte("Hola, mundo!"), 0o644))

	out, err := s.compiler.CompileToBytes(context.Background(), CompileOpts{
		InputFile:  input,
		OutputFile: "basic.pdf",
	})
	s.Require().NoError(err)
	s.Equal("%PDF", string(out[:4]))
	s.NoFileExists(filepath.Join(s.tempDir, "basic.pdf"))
}

func (s *TypstCompilerSuite) TestTemplateCompilation() {
	tmpl := filepath.Join(s.tempDir, "cuenta.typ")
	s.Require().NoError(os.WriteFile(tmpl, []byte(`#let data = json(sys.inputs.path)
Hola #data.at("cliente.primer_nombre"), total #data.at("cuenta.valor_total")`), 0o644))

	out, err := s.compiler.CompileTemplate(context.Background(), tmpl,
		[]byte(`{"cliente.primer_nombre": "Ana", "cuenta.valor_total": "$ 150.000"}`))
	s.Require().NoError(err)
	s.NotEmpty(out)
}

func (s *TypstCompilerSuite) TestTemplateCompilationMissingKey() {
	tmpl := filepath.Join(s.tempDir, "edge.typ")
	s.Require().NoError(os.WriteFile(tmpl, []byte(`#let data = json(sys.inputs.path)
#data.at("nombre")`), 0o644))

	_, err := s.compiler.CompileTemplate(context.Background(), tmpl, []byte(`{}`))
	s.Error(err)
}

func (s *TypstCompilerSuite) TestTemplateNotFound() {
	_, err := s.compiler.CompileTemplate(context.Background(), filepath.Join(s.tempDir, "missing.typ"), []byte(`{}`))
	s.Error(err)
	s.True(ierr.IsConfiguration(err))
}
