package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/storage"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, tmpl *Loaded, fields map[string]any) ([]byte, error) {
	args := m.Called(ctx, tmpl, fields)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRenderer) Name() types.DocumentRenderer {
	return types.DocumentRendererHTML
}

type GeneratorSuite struct {
	suite.Suite
	root      string
	outputDir string
	renderer  *mockRenderer
	generator Generator
}

func TestGenerator(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.root = s.T().TempDir()
	s.outputDir = filepath.Join(s.T().TempDir(), "pdfs")
	s.renderer = new(mockRenderer)

	log := logger.NewNopLogger()
	store := storage.NewLocalStorage(&config.StorageConfig{BaseURL: "https://files.example.com"}, log)
	s.generator = NewGeneratorWithRenderer(NewLoader(s.root), s.renderer, store, time.Second, log)

	s.Require().NoError(os.WriteFile(filepath.Join(s.root, "cuenta.html"), []byte("<p>{cliente.primer_nombre}</p>"), 0o644))
}

func (s *GeneratorSuite) request() *Request {
	return &Request{
		InvoiceID: 7,
		Template:  template.Source{Path: "cuenta.html"},
		Fields:    map[string]any{"cliente.primer_nombre": "Ana"},
		OutputDir: s.outputDir,
		Filename:  "7_1020.pdf",
	}
}

func (s *GeneratorSuite) TestGenerateStoresPDF() {
	s.renderer.On("Render", mock.Anything, mock.MatchedBy(func(l *Loaded) bool {
		return l.Kind == KindHTML && l.Name == "cuenta.html"
	}), mock.Anything).Return([]byte("%PDF-1.7\n%test"), nil).Once()

	url, err := s.generator.Generate(context.Background(), s.request())
	s.Require().NoError(err)
	s.Equal("https://files.example.com/7_1020.pdf", url)
	s.FileExists(filepath.Join(s.outputDir, "7_1020.pdf"))
	s.renderer.AssertExpectations(s.T())
}

func (s *GeneratorSuite) TestGenerateRejectsNonPDF() {
	s.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything).Return([]byte("<html>"), nil).Once()

	_, err := s.generator.Generate(context.Background(), s.request())
	s.Error(err)
	s.NoFileExists(filepath.Join(s.outputDir, "7_1020.pdf"))
}

func (s *GeneratorSuite) TestGenerateRendererError() {
	s.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("chrome crashed")).Once()

	_, err := s.generator.Generate(context.Background(), s.request())
	s.Error(err)
}

func (s *GeneratorSuite) TestGenerateConfigurationErrors() {
	req := s.request()
	req.Template = template.Source{}
	_, err := s.generator.Generate(context.Background(), req)
	s.True(ierr.IsConfiguration(err))

	req = s.request()
	req.OutputDir = " "
	_, err = s.generator.Generate(context.Background(), req)
	s.True(ierr.IsConfiguration(err))

	req = s.request()
	req.Template = template.Source{Path: "missing.docx"}
	_, err = s.generator.Generate(context.Background(), req)
	s.True(ierr.IsConfiguration(err))

	s.renderer.AssertNotCalled(s.T(), "Render", mock.Anything, mock.Anything, mock.Anything)
}

func (s *GeneratorSuite) TestLoaderInlineContentWins() {
	loaded, err := NewLoader(s.root).Load(context.Background(), template.Source{
		Path:    "cuenta.html",
		Content: []byte("#set page(paper: \"a4\")"),
	})
	s.Require().NoError(err)
	s.Equal("#set page(paper: \"a4\")", string(loaded.Content))
	s.Empty(loaded.Path)
	s.Equal(KindHTML, loaded.Kind)
}

func (s *GeneratorSuite) TestDetectKind() {
	s.Equal(KindDocx, detectKind("", buildDocx(s.T(), sampleBody)))
	s.Equal(KindTypst, detectKind("plantilla.typ", []byte("Hola")))
	s.Equal(KindTypst, detectKind("", []byte("#let data = json(sys.inputs.path)")))
	s.Equal(KindHTML, detectKind("", []byte("  <div>hola</div>")))
}

func (s *GeneratorSuite) TestNewRendererSelectsStrategy() {
	log := logger.NewNopLogger()
	for _, kind := range []types.DocumentRenderer{
		types.DocumentRendererOffice,
		types.DocumentRendererHTML,
		types.DocumentRendererTypst,
	} {
		r, err := NewRenderer(&config.DocumentConfig{Renderer: kind}, log)
		s.Require().NoError(err)
		s.Equal(kind, r.Name())
	}

	_, err := NewRenderer(&config.DocumentConfig{Renderer: "pandoc"}, log)
	s.Error(err)
}

func (s *GeneratorSuite) TestFormatFields() {
	out := FormatFields(map[string]any{"a": nil, "b": 1000, "c": "x"})
	s.Equal(map[string]string{"a": "", "b": "$ 1.000", "c": "x"}, out)
}
