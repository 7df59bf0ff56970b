package service

import (
	"context"
	"time"

	"github.com/flexprice/billing-notifier/internal/api/dto"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/types"
)

// NotificationService is the manual surface over the pipeline
type NotificationService interface {
	SendEmail(ctx context.Context, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error)
	GenerateDocument(ctx context.Context, invoiceID int64) (*dto.GenerateDocumentResponse, error)
	RunGeneration(ctx context.Context, billingDate time.Time, req *dto.CohortRunRequest) (*dto.CohortRunResponse, error)
	// QueueDispatch publishes documents.generated so the dispatch consumer, which
	// handles one cohort event at a time, emails the cohort
	QueueDispatch(ctx context.Context, billingDate time.Time) (*dto.TriggerCohortResponse, error)
	// TriggerGeneration publishes generation.completed so the consumers run the cohort
	TriggerGeneration(ctx context.Context, billingDate time.Time) (*dto.TriggerCohortResponse, error)
}

type notificationService struct {
	ServiceParams
	generation GenerationService
	dispatch   DispatchService
}

func NewNotificationService(params ServiceParams, generation GenerationService, dispatch DispatchService) NotificationService {
	return &notificationService{
		ServiceParams: params,
		generation:    generation,
		dispatch:      dispatch,
	}
}

func (s *notificationService) SendEmail(ctx context.Context, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg, err := req.ToMessage()
	if err != nil {
		return nil, err
	}

	result, err := s.EmailDispatcher.Send(ctx, msg)
	if err != nil {
		return nil, err
	}

	return &dto.SendEmailResponse{
		Sent:      true,
		MessageID: result.MessageID,
		Provider:  result.Provider,
	}, nil
}

func (s *notificationService) GenerateDocument(ctx context.Context, invoiceID int64) (*dto.GenerateDocumentResponse, error) {
	url, err := s.generation.GenerateForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateDocumentResponse{InvoiceID: invoiceID, DocumentURL: url}, nil
}

func (s *notificationService) RunGeneration(ctx context.Context, billingDate time.Time, req *dto.CohortRunRequest) (*dto.CohortRunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.generation.GenerateCohort(ctx, billingDate, req.PageSize)
	if err != nil {
		return nil, err
	}
	return toCohortRunResponse(billingDate, result), nil
}

func (s *notificationService) QueueDispatch(ctx context.Context, billingDate time.Time) (*dto.TriggerCohortResponse, error) {
	day := types.StartOfDayUTC(billingDate)
	_, total, err := s.InvoiceRepo.FetchPage(ctx, &invoice.PageFilter{BillingDate: day, Limit: 1})
	if err != nil {
		return nil, err
	}
	_, missing, err := s.InvoiceRepo.FetchPage(ctx, &invoice.PageFilter{BillingDate: day, OnlyMissingDocument: true, Limit: 1})
	if err != nil {
		return nil, err
	}

	event := events.NewDocumentsGenerated(day, total-missing)
	if err := s.EventPublisher.PublishDocumentsGenerated(ctx, event); err != nil {
		return nil, err
	}

	s.Logger.Infow("queued cohort dispatch",
		"billing_date", event.BillingDate,
		"document_count", event.DocumentCount,
	)
	return &dto.TriggerCohortResponse{
		BillingDate:  event.BillingDate,
		InvoiceCount: event.DocumentCount,
		Queued:       true,
	}, nil
}

func (s *notificationService) TriggerGeneration(ctx context.Context, billingDate time.Time) (*dto.TriggerCohortResponse, error) {
	day := types.StartOfDayUTC(billingDate)
	_, total, err := s.InvoiceRepo.FetchPage(ctx, &invoice.PageFilter{BillingDate: day, Limit: 1})
	if err != nil {
		return nil, err
	}

	event := &events.GenerationCompleted{
		BillingDate:    day.Format(types.DateLayout),
		GeneratedCount: total,
	}
	if err := s.EventPublisher.PublishGenerationCompleted(ctx, event); err != nil {
		return nil, err
	}

	s.Logger.Infow("queued cohort generation",
		"billing_date", event.BillingDate,
		"invoice_count", total,
	)
	return &dto.TriggerCohortResponse{
		BillingDate:  event.BillingDate,
		InvoiceCount: total,
		Queued:       true,
	}, nil
}

func toCohortRunResponse(billingDate time.Time, r *WalkResult) *dto.CohortRunResponse {
	return dto.NewCohortRunResponse(billingDate, r.Pages, r.Visited, r.Processed, r.Skipped, r.Failed)
}
