package email

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/mailersend/mailersend-go"
	"github.com/resend/resend-go/v2"
)

// Provider delivers a fully built message through one email backend
type Provider interface {
	Send(ctx context.Context, msg *Message) (string, error)
	Name() types.EmailProvider
}

// NewProvider builds the backend configured in email.provider
func NewProvider(cfg *config.EmailConfig, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case types.EmailProviderResend:
		return NewResendProvider(cfg.APIKey), nil
	case types.EmailProviderMailerSend:
		return NewMailerSendProvider(cfg.APIKey), nil
	case types.EmailProviderLog:
		return NewLogProvider(log), nil
	default:
		return nil, ierr.NewErrorf("unsupported email provider: %s", cfg.Provider).
			WithHint("email.provider must be one of resend, mailersend or log").
			Mark(ierr.ErrValidation)
	}
}

// ResendProvider sends through the Resend API
type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

func (p *ResendProvider) Name() types.EmailProvider {
	return types.EmailProviderResend
}

func (p *ResendProvider) Send(ctx context.Context, msg *Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    formatAddress(msg.FromName, msg.From),
		To:      []string{msg.To},
		Subject: msg.Subject,
	}
	if msg.IsHTML() {
		params.Html = msg.Body
	} else {
		params.Text = msg.Body
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     a.Content,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	for k, v := range msg.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: k, Value: v})
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Email provider rejected the message").
			Mark(ierr.ErrHTTPClient)
	}
	return sent.Id, nil
}

// MailerSendProvider sends through the MailerSend API
type MailerSendProvider struct {
	client *mailersend.Mailersend
}

func NewMailerSendProvider(apiKey string) *MailerSendProvider {
	return &MailerSendProvider{client: mailersend.NewMailersend(apiKey)}
}

func (p *MailerSendProvider) Name() types.EmailProvider {
	return types.EmailProviderMailerSend
}

func (p *MailerSendProvider) Send(ctx context.Context, msg *Message) (string, error) {
	m := p.client.Email.NewMessage()
	m.SetFrom(mailersend.From{Name: msg.FromName, Email: msg.From})
	m.SetRecipients([]mailersend.Recipient{{Email: msg.To}})
	m.SetSubject(msg.Subject)
	if msg.IsHTML() {
		m.SetHTML(msg.Body)
	} else {
		m.SetText(msg.Body)
	}
	for _, a := range msg.Attachments {
		m.AddAttachment(mailersend.Attachment{
			Content:  base64.StdEncoding.EncodeToString(a.Content),
			Filename: a.Filename,
		})
	}

	resp, err := p.client.Email.Send(ctx, m)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Email provider rejected the message").
			Mark(ierr.ErrHTTPClient)
	}
	return resp.Header.Get("X-Message-Id"), nil
}

// LogProvider only logs messages. Used for local runs without credentials.
type LogProvider struct {
	logger *logger.Logger
}

func NewLogProvider(log *logger.Logger) *LogProvider {
	return &LogProvider{logger: log}
}

func (p *LogProvider) Name() types.EmailProvider {
	return types.EmailProviderLog
}

func (p *LogProvider) Send(ctx context.Context, msg *Message) (string, error) {
	p.logger.Infow("email (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"document_url", msg.DocumentURL,
		"attachments", len(msg.Attachments),
		"body_length", len(msg.Body),
	)
	return "log-" + types.GenerateUUID(), nil
}

func formatAddress(name, address string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return address
	}
	return name + " <" + address + ">"
}
