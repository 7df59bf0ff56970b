package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/pubsub"
)

type PubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *logger.Logger
}

// NewPubSub creates a kafka pubsub whose subscriber joins consumerGroup
func NewPubSub(cfg *config.Configuration, log *logger.Logger, consumerGroup string) (pubsub.PubSub, error) {
	saramaConfig := GetSaramaConfig(cfg)
	wmLogger := watermill.NewStdLogger(false, false)
	marshaler := cohortMarshaler()

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             marshaler,
			OverwriteSaramaConfig: saramaConfig,
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Kafka.Brokers,
			ConsumerGroup:         consumerGroup,
			Unmarshaler:           marshaler,
			OverwriteSaramaConfig: saramaConfig,
		},
		wmLogger,
	)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	log.Infow("kafka pubsub ready", "brokers", cfg.Kafka.Brokers, "consumer_group", consumerGroup)
	return &PubSub{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     log,
	}, nil
}

// cohortMarshaler keys messages by billing date so one cohort stays on one
// partition and is consumed in order by a single group member
func cohortMarshaler() kafka.MarshalerUnmarshaler {
	return kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		if key := msg.Metadata.Get("billing_date"); key != "" {
			return key, nil
		}
		return msg.UUID, nil
	})
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	msg.SetContext(ctx)
	return p.publisher.Publish(topic, msg)
}

func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.subscriber.Subscribe(ctx, topic)
}

func (p *PubSub) Close() error {
	if err := p.publisher.Close(); err != nil {
		p.logger.Errorw("failed to close kafka publisher", "error", err)
	}
	return p.subscriber.Close()
}
