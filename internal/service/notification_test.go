package service

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/api/dto"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/testutil"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/stretchr/testify/suite"
)

type NotificationServiceSuite struct {
	pipelineSuite
	service NotificationService
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.pipelineSuite.SetupTest()
	s.service = NewNotificationService(s.params, s.generation, s.dispatch)
}

func (s *NotificationServiceSuite) TestSendEmail() {
	resp, err := s.service.SendEmail(s.GetContext(), &dto.SendEmailRequest{
		To:      "ana@example.com",
		Subject: "Recordatorio",
		Body:    "Su cuenta vence pronto",
		Type:    types.EmailContentText,
		Attachment: &dto.AttachmentRequest{
			Filename: "cuenta.pdf",
			Content:  base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test")),
		},
	})
	s.Require().NoError(err)
	s.True(resp.Sent)
	s.Equal("msg_1", resp.MessageID)
	s.Equal(types.EmailProviderLog, resp.Provider)

	sent := s.GetEmailProvider().Sent()
	s.Require().Len(sent, 1)
	msg := sent[0]
	s.Equal(testutil.TestFromAddress, msg.From)
	s.Equal(types.EmailContentText, msg.ContentType)
	s.Require().Len(msg.Attachments, 1)
	s.Equal("cuenta.pdf", msg.Attachments[0].Filename)
	s.Equal("application/pdf", msg.Attachments[0].ContentType)
	s.Equal("%PDF-1.4 test", string(msg.Attachments[0].Content))
}

func (s *NotificationServiceSuite) TestSendEmailValidation() {
	tests := []struct {
		name string
		req  *dto.SendEmailRequest
	}{
		{name: "missing recipient", req: &dto.SendEmailRequest{Subject: "a", Body: "b"}},
		{name: "invalid recipient", req: &dto.SendEmailRequest{To: "not-an-email", Subject: "a", Body: "b"}},
		{name: "missing body", req: &dto.SendEmailRequest{To: "ana@example.com", Subject: "a"}},
		{name: "unknown type", req: &dto.SendEmailRequest{To: "ana@example.com", Subject: "a", Body: "b", Type: "markdown"}},
		{name: "attachment not base64", req: &dto.SendEmailRequest{
			To: "ana@example.com", Subject: "a", Body: "b",
			Attachment: &dto.AttachmentRequest{Filename: "x.pdf", Content: "%%%"},
		}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.SendEmail(s.GetContext(), tt.req)
			s.Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
	s.Empty(s.GetEmailProvider().Sent())
}

func (s *NotificationServiceSuite) TestGenerateDocument() {
	s.seedInvoice(9)

	resp, err := s.service.GenerateDocument(s.GetContext(), 9)
	s.Require().NoError(err)
	s.Equal(int64(9), resp.InvoiceID)
	s.Equal(*s.stored(9).DocumentURL, resp.DocumentURL)

	_, err = s.service.GenerateDocument(s.GetContext(), 10)
	s.True(ierr.IsNotFound(err))
}

func (s *NotificationServiceSuite) TestRunGenerationAndDispatch() {
	s.seedCohort(5)

	gen, err := s.service.RunGeneration(s.GetContext(), s.billingDate, &dto.CohortRunRequest{PageSize: 2})
	s.Require().NoError(err)
	s.Equal("2025-11-01", gen.BillingDate)
	s.Equal(3, gen.Pages)
	s.Equal(5, gen.Visited)
	s.Equal(5, gen.Processed)
	s.Zero(gen.Failed)

	queued, err := s.service.QueueDispatch(s.GetContext(), s.billingDate)
	s.Require().NoError(err)
	s.Equal("2025-11-01", queued.BillingDate)
	s.Equal(5, queued.InvoiceCount)
	s.True(queued.Queued)

	// the generation run and the manual dispatch each published one event
	msgs := s.GetPubSub().GetMessages(s.GetConfig().Notification.DocumentsGeneratedTopic)
	s.Require().Len(msgs, 2)
	s.Empty(s.GetEmailProvider().Sent())

	dispatch := s.dispatch.(*dispatchService)
	for _, msg := range msgs {
		s.Require().NoError(dispatch.processMessage(msg))
	}
	s.Len(s.GetEmailProvider().Sent(), 5)
	for id := int64(1); id <= 5; id++ {
		s.True(s.stored(id).EmailSent)
	}
}

func (s *NotificationServiceSuite) TestQueueDispatchCountsDocuments() {
	s.seedInvoice(1, withDocument("https://files.example.com/1.pdf"))
	s.seedInvoice(2)

	resp, err := s.service.QueueDispatch(s.GetContext(), s.billingDate)
	s.Require().NoError(err)
	s.Equal(1, resp.InvoiceCount)

	msgs := s.GetPubSub().GetMessages(s.GetConfig().Notification.DocumentsGeneratedTopic)
	s.Require().Len(msgs, 1)
	event, _, err := events.ParseDocumentsGenerated(msgs[0])
	s.Require().NoError(err)
	s.Equal(1, event.DocumentCount)
}

func (s *NotificationServiceSuite) TestTriggerGenerationQueuesCohort() {
	s.seedCohort(3)
	s.seedInvoice(9, func(inv *invoice.Invoice) { inv.BillingDate = s.billingDate.AddDate(0, 1, 0) })

	resp, err := s.service.TriggerGeneration(s.GetContext(), s.billingDate.Add(15*time.Hour))
	s.Require().NoError(err)
	s.Equal("2025-11-01", resp.BillingDate)
	s.Equal(3, resp.InvoiceCount)
	s.True(resp.Queued)

	msgs := s.GetPubSub().GetMessages(s.GetConfig().Notification.GenerationCompletedTopic)
	s.Require().Len(msgs, 1)
	event, billingDate, err := events.ParseGenerationCompleted(msgs[0])
	s.Require().NoError(err)
	s.Equal(3, event.GeneratedCount)
	s.Equal(s.billingDate, billingDate)

	s.Require().NoError(s.generation.(*generationService).processMessage(msgs[0]))
	for id := int64(1); id <= 3; id++ {
		s.True(s.stored(id).HasDocument())
	}
	s.False(s.stored(9).HasDocument())
}

func (s *NotificationServiceSuite) TestRunRejectsInvalidPageSize() {
	_, err := s.service.RunGeneration(s.GetContext(), s.billingDate, &dto.CohortRunRequest{PageSize: -1})
	s.True(ierr.IsValidation(err))

	_, err = s.service.RunGeneration(s.GetContext(), s.billingDate, &dto.CohortRunRequest{PageSize: 10000})
	s.True(ierr.IsValidation(err))
}
