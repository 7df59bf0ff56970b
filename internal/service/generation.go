package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/document"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/payment"
	pubsubRouter "github.com/flexprice/billing-notifier/internal/pubsub/router"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
)

// GenerationService obtains payment links and documents for a cohort
type GenerationService interface {
	// GenerateCohort walks the invoices of billingDate that have no document yet
	// and publishes the documents generated event with the count produced
	GenerateCohort(ctx context.Context, billingDate time.Time, pageSize int) (*WalkResult, error)

	// GenerateForInvoice runs the per record pipeline for one invoice and
	// returns its document URL
	GenerateForInvoice(ctx context.Context, invoiceID int64) (string, error)

	// RegisterHandler consumes generation completed events
	RegisterHandler(router *pubsubRouter.Router, subscriber message.Subscriber)
}

type generationService struct {
	ServiceParams
	walker CohortWalker
}

func NewGenerationService(params ServiceParams, walker CohortWalker) GenerationService {
	return &generationService{
		ServiceParams: params,
		walker:        walker,
	}
}

func (s *generationService) GenerateCohort(ctx context.Context, billingDate time.Time, pageSize int) (*WalkResult, error) {
	if pageSize <= 0 {
		pageSize = s.Config.Notification.PageSize
	}

	result, err := s.walker.Walk(ctx, &WalkParams{
		Name:                "generation",
		BillingDate:         billingDate,
		PageSize:            pageSize,
		OnlyMissingDocument: true,
	}, s.generateRecord)
	if err != nil {
		return result, err
	}

	// Dispatch also covers documents from earlier runs, so the event goes out
	// even when this run produced nothing
	event := events.NewDocumentsGenerated(billingDate, result.Processed)
	if err := s.EventPublisher.PublishDocumentsGenerated(ctx, event); err != nil {
		return result, err
	}

	s.Logger.Infow("document generation completed",
		"billing_date", event.BillingDate,
		"documents_generated", result.Processed,
	)
	return result, nil
}

func (s *generationService) GenerateForInvoice(ctx context.Context, invoiceID int64) (string, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	if inv.HasDocument() {
		return *inv.DocumentURL, nil
	}

	if _, err := s.generateRecord(types.SetInvoiceID(ctx, inv.ID), inv); err != nil {
		return "", err
	}
	return *inv.DocumentURL, nil
}

// generateRecord is the per invoice pipeline. The payment link is persisted as
// soon as it is obtained, the document URL last.
func (s *generationService) generateRecord(ctx context.Context, inv *invoice.Invoice) (bool, error) {
	if inv.HasDocument() {
		s.Logger.Debugw("invoice already has a document", "invoice_id", inv.ID)
		return false, nil
	}

	ic, err := loadInvoiceContext(ctx, s.ServiceParams, inv, true)
	if err != nil {
		return false, err
	}

	link, err := s.resolvePaymentLink(ctx, ic)
	if err != nil {
		return false, err
	}

	source := ic.template.DocumentTemplate()
	outputDir := ic.template.OutputPath()
	if source.IsEmpty() || outputDir == "" {
		return false, ierr.NewErrorf("template %d has no document source or output path", ic.template.ID).
			WithHint("The active template is missing its document template or output path").
			WithReportableDetails(map[string]any{
				"template_id": ic.template.ID,
				"tenant_id":   inv.TenantID,
			}).
			Mark(ierr.ErrConfiguration)
	}

	stepCtx, cancel := withStepTimeout(ctx, s.Config.Notification.StepTimeout)
	defer cancel()

	url, err := s.DocumentGenerator.Generate(stepCtx, &document.Request{
		InvoiceID: inv.ID,
		Template:  source,
		Fields:    ic.fields(link),
		OutputDir: outputDir,
		Filename:  inv.DocumentFilename(ic.client.Identification),
	})
	if err != nil {
		return false, err
	}

	if err := s.InvoiceRepo.UpdateDocumentURL(ctx, inv.ID, url); err != nil {
		return false, err
	}
	inv.DocumentURL = &url

	s.Logger.Infow("generated invoice document",
		"invoice_id", inv.ID,
		"document_url", url,
	)
	return true, nil
}

// resolvePaymentLink reuses a stored link or requests and persists a new one
func (s *generationService) resolvePaymentLink(ctx context.Context, ic *invoiceContext) (string, error) {
	inv := ic.invoice
	if inv.HasPaymentLink() {
		return *inv.PaymentLink, nil
	}

	stepCtx, cancel := withStepTimeout(ctx, s.Config.Notification.StepTimeout)
	defer cancel()

	link, err := s.LinkResolver.RequestPaymentLink(stepCtx, &payment.LinkRequest{
		InvoiceID:   inv.ID,
		Amount:      inv.TotalAmount,
		Reference:   inv.Reference(),
		Description: fmt.Sprintf("Cuenta de cobro %s - %s", inv.Reference(), render.FormatMonthYear(inv.BillingDate)),
		ClientEmail: ic.client.Email,
		ClientName:  ic.client.FullName(),
		DueDate:     ic.dueDate,
	})
	if err != nil {
		return "", err
	}

	if err := s.InvoiceRepo.UpdatePaymentLink(ctx, inv.ID, link); err != nil {
		return "", err
	}
	inv.PaymentLink = &link

	s.Logger.Debugw("stored payment link", "invoice_id", inv.ID)
	return link, nil
}

func (s *generationService) RegisterHandler(router *pubsubRouter.Router, subscriber message.Subscriber) {
	router.AddNoPublishHandler(
		"generation_completed_handler",
		s.Config.Notification.GenerationCompletedTopic,
		subscriber,
		s.processMessage,
	)

	s.Logger.Infow("registered generation completed handler",
		"topic", s.Config.Notification.GenerationCompletedTopic,
		"consumer_group", s.Config.Notification.ConsumerGroup,
	)
}

// processMessage returns page level failures so the router redelivers the event
func (s *generationService) processMessage(msg *message.Message) error {
	event, billingDate, err := events.ParseGenerationCompleted(msg)
	if err != nil {
		s.Logger.Errorw("invalid generation completed event",
			"error", err,
			"message_uuid", msg.UUID,
			"payload", string(msg.Payload),
		)
		return err
	}

	s.Logger.Infow("processing generation completed event",
		"message_uuid", msg.UUID,
		"billing_date", event.BillingDate,
		"generated_count", event.GeneratedCount,
	)

	ctx := msg.Context()
	if requestID := msg.Metadata.Get("request_id"); requestID != "" {
		ctx = types.SetRequestID(ctx, requestID)
	}

	_, err = s.GenerateCohort(ctx, billingDate, s.Config.Notification.PageSize)
	return err
}
