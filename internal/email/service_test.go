package email

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/stretchr/testify/suite"
)

type recordingProvider struct {
	mu   sync.Mutex
	sent []*Message
	err  error
}

func (p *recordingProvider) Name() types.EmailProvider { return types.EmailProviderLog }

func (p *recordingProvider) Send(ctx context.Context, msg *Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, msg)
	return "msg-1", nil
}

type ServiceSuite struct {
	suite.Suite
	provider *recordingProvider
	cfg      *config.Configuration
	files    *httptest.Server
}

func TestEmailService(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.provider = &recordingProvider{}
	s.cfg = &config.Configuration{Email: config.EmailConfig{
		Provider:    types.EmailProviderLog,
		FromAddress: "facturacion@example.com",
		FromName:    "Facturación",
		ReplyTo:     "soporte@example.com",
	}}
	s.files = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pdfs/9_123.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 test"))
	}))
}

func (s *ServiceSuite) TearDownTest() {
	s.files.Close()
}

func (s *ServiceSuite) service() *Service {
	client := httpclient.NewDefaultClient(httpclient.ClientConfig{}, nil)
	return NewService(s.cfg, s.provider, client, logger.NewNopLogger())
}

func (s *ServiceSuite) TestSendFillsDefaults() {
	res, err := s.service().Send(context.Background(), &Message{
		To:          "ana@example.com",
		Subject:     "Cuenta de cobro - Noviembre 2025",
		Body:        "<p>Hola</p>",
		DocumentURL: s.files.URL + "/pdfs/9_123.pdf",
	})
	s.Require().NoError(err)
	s.Equal("msg-1", res.MessageID)

	s.Require().Len(s.provider.sent, 1)
	msg := s.provider.sent[0]
	s.Equal("facturacion@example.com", msg.From)
	s.Equal("Facturación", msg.FromName)
	s.Equal("soporte@example.com", msg.ReplyTo)
	s.True(msg.IsHTML())
	s.Empty(msg.Attachments)
}

func (s *ServiceSuite) TestSendAttachesDocument() {
	s.cfg.Email.AttachDocument = true

	_, err := s.service().Send(context.Background(), &Message{
		To:          "ana@example.com",
		Subject:     "Cuenta",
		Body:        "Hola",
		ContentType: types.EmailContentText,
		DocumentURL: s.files.URL + "/pdfs/9_123.pdf",
	})
	s.Require().NoError(err)

	msg := s.provider.sent[0]
	s.Require().Len(msg.Attachments, 1)
	s.Equal("9_123.pdf", msg.Attachments[0].Filename)
	s.Equal("%PDF-1.7 test", string(msg.Attachments[0].Content))
	s.False(msg.IsHTML())
}

func (s *ServiceSuite) TestSendAttachmentDownloadFails() {
	s.cfg.Email.AttachDocument = true

	_, err := s.service().Send(context.Background(), &Message{
		To:          "ana@example.com",
		Subject:     "Cuenta",
		Body:        "Hola",
		DocumentURL: s.files.URL + "/pdfs/missing.pdf",
	})
	s.Error(err)
	s.True(ierr.IsHTTPClient(err))
	s.Empty(s.provider.sent)
}

func (s *ServiceSuite) TestSendValidation() {
	_, err := s.service().Send(context.Background(), &Message{To: "nope", Subject: " ", Body: ""})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.provider.sent)
}

func (s *ServiceSuite) TestProviderErrorPropagates() {
	s.provider.err = errors.New("smtp down")
	_, err := s.service().Send(context.Background(), &Message{To: "ana@example.com", Subject: "a", Body: "b"})
	s.Error(err)
}

func (s *ServiceSuite) TestAttachmentName() {
	s.Equal("12_900.pdf", attachmentName("https://files.example.com/a/12_900.pdf?x=1"))
	s.Equal("documento.pdf", attachmentName("https://files.example.com/"))
}
