package nats

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/pubsub"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	headerMessageID = "Nats-Msg-Id"
	// ackWait bounds how long one cohort trigger may stay unacked before redelivery
	ackWait = 30 * time.Minute
)

// PubSub adapts JetStream to watermill messages. Every topic is a subject of one
// stream; each consumer group is a durable consumer.
type PubSub struct {
	nc            *nats.Conn
	js            jetstream.JetStream
	stream        string
	consumerGroup string
	logger        *logger.Logger

	mu     sync.Mutex
	stops  []func()
	closed bool
}

// NewPubSub connects and makes sure the stream covers topics
func NewPubSub(ctx context.Context, cfg *config.Configuration, log *logger.Logger, consumerGroup string, topics ...string) (pubsub.PubSub, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(consumerGroup))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not connect to NATS at %s", cfg.NATS.URL).
			Mark(ierr.ErrHTTPClient)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, ierr.WithError(err).WithHint("JetStream is not available").Mark(ierr.ErrHTTPClient)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.NATS.Stream,
		Subjects: topics,
	})
	if err != nil {
		nc.Close()
		return nil, ierr.WithError(err).
			WithHintf("Could not create stream %s", cfg.NATS.Stream).
			Mark(ierr.ErrHTTPClient)
	}

	log.Infow("nats connected", "url", cfg.NATS.URL, "stream", cfg.NATS.Stream, "consumer_group", consumerGroup)
	return &PubSub{
		nc:            nc,
		js:            js,
		stream:        cfg.NATS.Stream,
		consumerGroup: consumerGroup,
		logger:        log,
	}, nil
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	out := nats.NewMsg(topic)
	out.Data = msg.Payload
	out.Header.Set(headerMessageID, msg.UUID)
	for k, v := range msg.Metadata {
		out.Header.Set(k, v)
	}

	if _, err := p.js.PublishMsg(ctx, out); err != nil {
		return ierr.WithError(err).
			WithHintf("Could not publish to %s", topic).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

// Subscribe creates (or resumes) the durable consumer of the group for topic
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	consumer, err := p.js.CreateOrUpdateConsumer(ctx, p.stream, jetstream.ConsumerConfig{
		Durable:       durableName(p.consumerGroup, topic),
		FilterSubject: topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxAckPending: 1,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not create consumer for %s", topic).
			Mark(ierr.ErrHTTPClient)
	}

	out := make(chan *message.Message)
	cons, err := consumer.Consume(func(jm jetstream.Msg) {
		p.deliver(ctx, out, jm)
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not consume %s", topic).
			Mark(ierr.ErrHTTPClient)
	}

	p.mu.Lock()
	p.stops = append(p.stops, cons.Stop)
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		cons.Stop()
	}()

	return out, nil
}

// deliver hands one message to the router and mirrors its ack or nack to JetStream
func (p *PubSub) deliver(ctx context.Context, out chan<- *message.Message, jm jetstream.Msg) {
	id := jm.Headers().Get(headerMessageID)
	if id == "" {
		id = watermill.NewUUID()
	}

	msg := message.NewMessage(id, jm.Data())
	for k, v := range jm.Headers() {
		if k != headerMessageID && len(v) > 0 {
			msg.Metadata.Set(k, v[0])
		}
	}
	msg.SetContext(ctx)

	select {
	case out <- msg:
	case <-ctx.Done():
		_ = jm.Nak()
		return
	}

	select {
	case <-msg.Acked():
		if err := jm.Ack(); err != nil {
			p.logger.Errorw("nats ack failed", "error", err, "message_uuid", id)
		}
	case <-msg.Nacked():
		if err := jm.Nak(); err != nil {
			p.logger.Errorw("nats nak failed", "error", err, "message_uuid", id)
		}
	case <-ctx.Done():
		_ = jm.Nak()
	}
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for _, stop := range p.stops {
		stop()
	}
	return p.nc.Drain()
}

// durableName builds a consumer name; JetStream forbids dots and spaces
func durableName(group, topic string) string {
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return r.Replace(group + "_" + topic)
}
