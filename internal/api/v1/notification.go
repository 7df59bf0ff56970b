package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/flexprice/billing-notifier/internal/api/dto"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/service"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// SendEmail godoc
// @Summary Send an email
// @Description Send one email through the configured provider, optionally with an attachment
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body dto.SendEmailRequest true "Email"
// @Success 200 {object} dto.SendEmailResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 502 {object} ierr.ErrorResponse
// @Router /notifications/send-email [post]
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.notificationService.SendEmail(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to send email", "error", err, "to", req.To)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateDocument godoc
// @Summary Generate the document of an invoice
// @Description Obtain the payment link and render the PDF of one invoice. An existing document is returned as is.
// @Tags Notifications
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} dto.GenerateDocumentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /notifications/invoices/{id}/document [post]
func (h *NotificationHandler) GenerateDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(ierr.NewErrorf("invalid invoice id %q", c.Param("id")).
			WithHint("Invoice id must be a positive integer").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.notificationService.GenerateDocument(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorw("failed to generate document", "error", err, "invoice_id", id)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateCohort godoc
// @Summary Run document generation for a billing date
// @Tags Notifications
// @Accept json
// @Produce json
// @Param date path string true "Billing date (YYYY-MM-DD)"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.CohortRunResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /notifications/cohorts/{date}/generate [post]
func (h *NotificationHandler) GenerateCohort(c *gin.Context) {
	h.runCohort(c, h.notificationService.RunGeneration)
}

// DispatchCohort godoc
// @Summary Queue email dispatch for a billing date
// @Description Publishes documents.generated; the dispatch consumer emails the cohort
// @Tags Notifications
// @Produce json
// @Param date path string true "Billing date (YYYY-MM-DD)"
// @Success 202 {object} dto.TriggerCohortResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /notifications/cohorts/{date}/dispatch [post]
func (h *NotificationHandler) DispatchCohort(c *gin.Context) {
	h.queueCohort(c, h.notificationService.QueueDispatch)
}

// TriggerCohort godoc
// @Summary Queue generation and dispatch for a billing date
// @Description Publishes generation.completed; the consumers run both stages
// @Tags Notifications
// @Produce json
// @Param date path string true "Billing date (YYYY-MM-DD)"
// @Success 202 {object} dto.TriggerCohortResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /notifications/cohorts/{date}/trigger [post]
func (h *NotificationHandler) TriggerCohort(c *gin.Context) {
	h.queueCohort(c, h.notificationService.TriggerGeneration)
}

type cohortQueuer func(ctx context.Context, billingDate time.Time) (*dto.TriggerCohortResponse, error)

func (h *NotificationHandler) queueCohort(c *gin.Context, queue cohortQueuer) {
	billingDate, err := types.ParseBillingDate(c.Param("date"))
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := queue(c.Request.Context(), billingDate)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

type cohortRunner func(ctx context.Context, billingDate time.Time, req *dto.CohortRunRequest) (*dto.CohortRunResponse, error)

func (h *NotificationHandler) runCohort(c *gin.Context, run cohortRunner) {
	billingDate, err := types.ParseBillingDate(c.Param("date"))
	if err != nil {
		c.Error(err)
		return
	}

	var req dto.CohortRunRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := run(c.Request.Context(), billingDate, &req)
	if err != nil {
		h.logger.Errorw("cohort run failed",
			"error", err,
			"path", c.FullPath(),
			"billing_date", billingDate.Format(types.DateLayout),
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
