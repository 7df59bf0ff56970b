package types

import (
	"fmt"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// EmailProvider selects the transactional email backend
type EmailProvider string

const (
	EmailProviderResend     EmailProvider = "resend"
	EmailProviderMailerSend EmailProvider = "mailersend"
	// EmailProviderLog only logs messages, used for local runs
	EmailProviderLog EmailProvider = "log"
)

func (p EmailProvider) Validate() error {
	switch p {
	case EmailProviderResend, EmailProviderMailerSend, EmailProviderLog:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid email provider: %s", p)).
		WithHint("email.provider must be one of resend, mailersend or log").
		Mark(ierr.ErrValidation)
}

// EmailContentType is the body format of an outgoing message
type EmailContentType string

const (
	EmailContentHTML EmailContentType = "html"
	EmailContentText EmailContentType = "text"
)
