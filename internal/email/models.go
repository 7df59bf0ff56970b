package email

import (
	"github.com/flexprice/billing-notifier/internal/types"
)

// Attachment is a file sent along with a message
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message is a provider agnostic outgoing email
type Message struct {
	From        string
	FromName    string
	To          string
	ReplyTo     string
	Subject     string
	Body        string
	ContentType types.EmailContentType
	// DocumentURL is the stored PDF. It is attached when attachment is enabled.
	DocumentURL string
	Attachments []Attachment
	// Tags end up as provider metadata where supported
	Tags map[string]string
}

// IsHTML reports whether the body is HTML. Empty defaults to HTML.
func (m *Message) IsHTML() bool {
	return m.ContentType == "" || m.ContentType == types.EmailContentHTML
}

// SendResult represents the response from sending an email
type SendResult struct {
	MessageID string
	Provider  types.EmailProvider
}
