package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/idempotency"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/pubsub"
	"github.com/flexprice/billing-notifier/internal/types"
)

// Publisher produces the pipeline trigger events
type Publisher interface {
	PublishGenerationCompleted(ctx context.Context, event *GenerationCompleted) error
	PublishDocumentsGenerated(ctx context.Context, event *DocumentsGenerated) error
}

type publisher struct {
	pubSub      pubsub.Publisher
	config      *config.NotificationConfig
	idempotency *idempotency.Generator
	logger      *logger.Logger
}

func NewPublisher(pubSub pubsub.Publisher, cfg *config.Configuration, logger *logger.Logger) Publisher {
	return &publisher{
		pubSub:      pubSub,
		config:      &cfg.Notification,
		idempotency: idempotency.NewGenerator(),
		logger:      logger,
	}
}

func (p *publisher) PublishGenerationCompleted(ctx context.Context, event *GenerationCompleted) error {
	return p.publish(ctx, p.config.GenerationCompletedTopic, event.BillingDate, map[string]interface{}{
		"topic":        p.config.GenerationCompletedTopic,
		"billing_date": event.BillingDate,
		"count":        event.GeneratedCount,
	}, event)
}

func (p *publisher) PublishDocumentsGenerated(ctx context.Context, event *DocumentsGenerated) error {
	return p.publish(ctx, p.config.DocumentsGeneratedTopic, event.BillingDate, map[string]interface{}{
		"topic":        p.config.DocumentsGeneratedTopic,
		"billing_date": event.BillingDate,
		"count":        event.DocumentCount,
		"timestamp":    event.Timestamp.UnixNano(),
	}, event)
}

func (p *publisher) publish(ctx context.Context, topic, billingDate string, keyParams map[string]interface{}, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal pipeline event").
			Mark(ierr.ErrValidation)
	}

	messageID := p.idempotency.GenerateKey(idempotency.ScopeCohortEvent, keyParams)
	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set("billing_date", billingDate)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	p.logger.Debugw("publishing pipeline event",
		"message_uuid", messageID,
		"topic", topic,
		"payload", string(payload),
	)

	if err := p.pubSub.Publish(ctx, topic, msg); err != nil {
		p.logger.Errorw("failed to publish pipeline event",
			"error", err,
			"topic", topic,
			"billing_date", billingDate,
		)
		return ierr.WithError(err).
			WithHintf("Failed to publish to %s", topic).
			Mark(ierr.ErrSystem)
	}

	p.logger.Infow("published pipeline event",
		"topic", topic,
		"billing_date", billingDate,
	)
	return nil
}
