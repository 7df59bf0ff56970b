package service

import (
	"context"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/email"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/events"
	pubsubRouter "github.com/flexprice/billing-notifier/internal/pubsub/router"
	"github.com/flexprice/billing-notifier/internal/render"
	"github.com/flexprice/billing-notifier/internal/types"
)

// DispatchService emails the generated documents of a cohort
type DispatchService interface {
	// DispatchCohort emails every invoice of billingDate that has a document and
	// was not emailed yet. It returns the walk summary; Processed is the number
	// of emails sent.
	DispatchCohort(ctx context.Context, billingDate time.Time, pageSize int) (*WalkResult, error)

	// RegisterHandler consumes documents generated events
	RegisterHandler(router *pubsubRouter.Router, subscriber message.Subscriber)
}

var htmlBodyRenderer = render.NewRenderer(render.DoubleBrace, render.WithEscaper(html.EscapeString))

type dispatchService struct {
	ServiceParams
	walker CohortWalker
}

func NewDispatchService(params ServiceParams, walker CohortWalker) DispatchService {
	return &dispatchService{
		ServiceParams: params,
		walker:        walker,
	}
}

func (s *dispatchService) DispatchCohort(ctx context.Context, billingDate time.Time, pageSize int) (*WalkResult, error) {
	if pageSize <= 0 {
		pageSize = s.Config.Notification.PageSize
	}

	result, err := s.walker.Walk(ctx, &WalkParams{
		Name:        "dispatch",
		BillingDate: billingDate,
		PageSize:    pageSize,
	}, s.dispatchRecord)
	if err != nil {
		return result, err
	}

	s.Logger.Infow("email dispatch completed",
		"billing_date", billingDate.UTC().Format(types.DateLayout),
		"emails_sent", result.Processed,
	)
	return result, nil
}

// dispatchRecord sends one invoice email. The sent marker is written only after
// the provider accepted the message.
func (s *dispatchService) dispatchRecord(ctx context.Context, inv *invoice.Invoice) (bool, error) {
	if inv.EmailSent || !inv.HasDocument() {
		s.Logger.Debugw("skipping invoice for dispatch",
			"invoice_id", inv.ID,
			"email_sent", inv.EmailSent,
			"has_document", inv.HasDocument(),
		)
		return false, nil
	}

	// the page may be stale; another run can have emailed the invoice since
	current, err := s.InvoiceRepo.Get(ctx, inv.ID)
	if err != nil {
		return false, err
	}
	if current.EmailSent {
		s.Logger.Debugw("invoice emailed since the page was read", "invoice_id", inv.ID)
		return false, nil
	}

	ic, err := loadInvoiceContext(ctx, s.ServiceParams, inv, false)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(ic.client.Email) == "" {
		return false, ierr.NewErrorf("client %d has no email address", ic.client.ID).
			WithHint("The client has no email address").
			WithReportableDetails(map[string]any{"client_id": ic.client.ID}).
			Mark(ierr.ErrConfiguration)
	}

	fields := ic.fields("")
	body := htmlBodyRenderer.Render(ic.template.EmailBodyTemplate, fields)
	subject := render.DefaultSubject(inv.BillingDate)
	if custom := strings.TrimSpace(ic.template.EmailSubject); custom != "" {
		subject = render.Render(custom, fields, render.DoubleBrace)
	}

	stepCtx, cancel := withStepTimeout(ctx, s.Config.Notification.StepTimeout)
	defer cancel()

	result, err := s.EmailDispatcher.Send(stepCtx, &email.Message{
		To:          ic.client.Email,
		Subject:     subject,
		Body:        body,
		ContentType: types.EmailContentHTML,
		DocumentURL: *inv.DocumentURL,
		Tags: map[string]string{
			"invoice_id":   strconv.FormatInt(inv.ID, 10),
			"billing_date": inv.BillingDate.UTC().Format(types.DateLayout),
		},
	})
	if err != nil {
		return false, err
	}

	sentAt := time.Now().UTC()
	if err := s.InvoiceRepo.MarkEmailSent(ctx, inv.ID, sentAt); err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Warnw("invoice was marked as emailed by another run",
				"invoice_id", inv.ID,
				"message_id", result.MessageID,
			)
			return false, nil
		}
		return false, err
	}
	inv.EmailSent = true
	inv.EmailSentAt = &sentAt

	s.Logger.Infow("sent invoice email",
		"invoice_id", inv.ID,
		"message_id", result.MessageID,
		"provider", result.Provider,
	)
	return true, nil
}

func (s *dispatchService) RegisterHandler(router *pubsubRouter.Router, subscriber message.Subscriber) {
	router.AddNoPublishHandler(
		"documents_generated_handler",
		s.Config.Notification.DocumentsGeneratedTopic,
		subscriber,
		s.processMessage,
	)

	s.Logger.Infow("registered documents generated handler",
		"topic", s.Config.Notification.DocumentsGeneratedTopic,
		"consumer_group", s.Config.Notification.DispatchConsumerGroup(),
	)
}

func (s *dispatchService) processMessage(msg *message.Message) error {
	event, billingDate, err := events.ParseDocumentsGenerated(msg)
	if err != nil {
		s.Logger.Errorw("invalid documents generated event",
			"error", err,
			"message_uuid", msg.UUID,
			"payload", string(msg.Payload),
		)
		return err
	}

	s.Logger.Infow("processing documents generated event",
		"message_uuid", msg.UUID,
		"billing_date", event.BillingDate,
		"document_count", event.DocumentCount,
	)

	ctx := msg.Context()
	if requestID := msg.Metadata.Get("request_id"); requestID != "" {
		ctx = types.SetRequestID(ctx, requestID)
	}

	_, err = s.DispatchCohort(ctx, billingDate, s.Config.Notification.PageSize)
	return err
}
