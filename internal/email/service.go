package email

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/validator"
	"golang.org/x/time/rate"
)

// Dispatcher sends one message and reports the provider message id
type Dispatcher interface {
	Send(ctx context.Context, msg *Message) (*SendResult, error)
}

// Service fills sender defaults, attaches the stored document when enabled and
// throttles calls to the provider
type Service struct {
	provider Provider
	client   httpclient.Client
	limiter  *rate.Limiter
	cfg      config.EmailConfig
	logger   *logger.Logger
}

// NewService builds the dispatcher. A non positive rate disables throttling.
func NewService(cfg *config.Configuration, provider Provider, client httpclient.Client, log *logger.Logger) *Service {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Email.RatePerSecond > 0 {
		burst := cfg.Email.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Email.RatePerSecond), burst)
	}

	return &Service{
		provider: provider,
		client:   client,
		limiter:  limiter,
		cfg:      cfg.Email,
		logger:   log,
	}
}

func (s *Service) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	if msg == nil {
		return nil, ierr.NewError("message is required").Mark(ierr.ErrValidation)
	}

	if msg.From == "" {
		msg.From = s.cfg.FromAddress
		if msg.FromName == "" {
			msg.FromName = s.cfg.FromName
		}
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = s.cfg.ReplyTo
	}

	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	if s.cfg.AttachDocument && msg.DocumentURL != "" && len(msg.Attachments) == 0 {
		attachment, err := s.download(ctx, msg.DocumentURL)
		if err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, *attachment)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Email send was cancelled while waiting for the rate limiter").
			Mark(ierr.ErrSystem)
	}

	id, err := s.provider.Send(ctx, msg)
	if err != nil {
		s.logger.WithContext(ctx).Errorw("failed to send email",
			"error", err,
			"provider", s.provider.Name(),
			"to", msg.To,
			"subject", msg.Subject,
		)
		return nil, err
	}

	s.logger.WithContext(ctx).Infow("email sent successfully",
		"message_id", id,
		"provider", s.provider.Name(),
		"to", msg.To,
		"subject", msg.Subject,
	)

	return &SendResult{MessageID: id, Provider: s.provider.Name()}, nil
}

func (s *Service) download(ctx context.Context, documentURL string) (*Attachment, error) {
	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    documentURL,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not download the document to attach: %s", documentURL).
			Mark(ierr.ErrHTTPClient)
	}

	contentType := resp.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &Attachment{
		Filename:    attachmentName(documentURL),
		Content:     resp.Body,
		ContentType: contentType,
	}, nil
}

// attachmentName is the last path segment of the document URL
func attachmentName(documentURL string) string {
	name := ""
	if u, err := url.Parse(documentURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		return "documento.pdf"
	}
	return name
}

func validateMessage(msg *Message) error {
	missing := make([]string, 0, 3)
	if err := validator.ValidateEmail(msg.To); err != nil {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(msg.Body) == "" {
		missing = append(missing, "body")
	}
	if msg.From == "" {
		missing = append(missing, "from")
	}

	if len(missing) > 0 {
		return ierr.NewErrorf("invalid email message: %s", strings.Join(missing, ", ")).
			WithHint("Recipient, sender, subject and body are required").
			WithReportableDetails(map[string]any{"fields": missing}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
