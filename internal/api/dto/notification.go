package dto

import (
	"encoding/base64"
	"time"

	"github.com/flexprice/billing-notifier/internal/email"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/flexprice/billing-notifier/internal/validator"
	"github.com/samber/lo"
)

// SendEmailRequest is a provider agnostic email send
type SendEmailRequest struct {
	To          string                 `json:"to" validate:"required,email"`
	Subject     string                 `json:"subject" validate:"required"`
	Body        string                 `json:"body" validate:"required"`
	Type        types.EmailContentType `json:"type" validate:"omitempty,oneof=html text"`
	DocumentURL string                 `json:"document_url,omitempty" validate:"omitempty,url"`
	Attachment  *AttachmentRequest     `json:"attachment,omitempty"`
}

// AttachmentRequest carries a file as base64
type AttachmentRequest struct {
	Filename    string `json:"filename" validate:"required"`
	Content     string `json:"content" validate:"required,base64"`
	ContentType string `json:"content_type,omitempty"`
}

func (r *SendEmailRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Attachment != nil {
		if err := validator.ValidateRequest(r.Attachment); err != nil {
			return err
		}
	}
	return nil
}

// ToMessage converts the request to a dispatcher message
func (r *SendEmailRequest) ToMessage() (*email.Message, error) {
	msg := &email.Message{
		To:          r.To,
		Subject:     r.Subject,
		Body:        r.Body,
		ContentType: lo.Ternary(r.Type == "", types.EmailContentHTML, r.Type),
		DocumentURL: r.DocumentURL,
	}

	if r.Attachment != nil {
		content, err := base64.StdEncoding.DecodeString(r.Attachment.Content)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Attachment content must be base64 encoded").
				Mark(ierr.ErrValidation)
		}
		msg.Attachments = []email.Attachment{{
			Filename:    r.Attachment.Filename,
			Content:     content,
			ContentType: lo.Ternary(r.Attachment.ContentType == "", "application/pdf", r.Attachment.ContentType),
		}}
	}
	return msg, nil
}

type SendEmailResponse struct {
	Sent      bool                `json:"sent"`
	MessageID string              `json:"message_id,omitempty"`
	Provider  types.EmailProvider `json:"provider,omitempty"`
}

type GenerateDocumentResponse struct {
	InvoiceID   int64  `json:"invoice_id"`
	DocumentURL string `json:"document_url"`
}

// CohortRunRequest is the optional body of a manual cohort run
type CohortRunRequest struct {
	PageSize int `json:"page_size" form:"page_size" validate:"omitempty,gt=0,lte=5000"`
}

func (r *CohortRunRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CohortRunResponse summarizes a manual generation or dispatch run
type CohortRunResponse struct {
	BillingDate string `json:"billing_date"`
	Pages       int    `json:"pages"`
	Visited     int    `json:"visited"`
	Processed   int    `json:"processed"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

func NewCohortRunResponse(billingDate time.Time, pages, visited, processed, skipped, failed int) *CohortRunResponse {
	return &CohortRunResponse{
		BillingDate: billingDate.UTC().Format(types.DateLayout),
		Pages:       pages,
		Visited:     visited,
		Processed:   processed,
		Skipped:     skipped,
		Failed:      failed,
	}
}

// TriggerCohortResponse acknowledges a queued cohort run
type TriggerCohortResponse struct {
	BillingDate  string `json:"billing_date"`
	InvoiceCount int    `json:"invoice_count"`
	Queued       bool   `json:"queued"`
}
