package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/sentry"
)

// PoisonTopic receives triggers that exhausted their retries
const PoisonTopic = "cuentas_cobro_dlq"

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.RetryConfig
}

// NewRouter creates a router with poison queue, panic recovery, correlation ids
// and exponential retry. Failures that are not worth retrying skip the backoff.
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(
		message.RouterConfig{CloseTimeout: 30 * time.Second},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueue(newPoisonPublisher(), PoisonTopic)
	if err != nil {
		return nil, err
	}

	retryCfg := cfg.Notification.Retry
	retry := middleware.Retry{
		MaxRetries:          retryCfg.MaxRetries,
		InitialInterval:     retryCfg.InitialInterval,
		MaxInterval:         retryCfg.MaxInterval,
		Multiplier:          retryCfg.Multiplier,
		MaxElapsedTime:      retryCfg.MaxElapsedTime,
		RandomizationFactor: 0.5,
		Logger:              watermill.NewStdLogger(false, false),
		OnRetryHook: func(retryNum int, delay time.Duration) {
			logger.Infow("retrying message",
				"retry_number", retryNum,
				"max_retries", retryCfg.MaxRetries,
				"delay", delay,
			)
		},
	}

	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		retryFiltered(logger, retry.Middleware),
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &retryCfg,
	}, nil
}

type permanentKey struct{}

// permanentFailure carries a non retryable error past the retry middleware
type permanentFailure struct {
	err error
}

// retryFiltered runs the retry middleware only for retryable failures
func retryFiltered(logger *logger.Logger, retry message.HandlerMiddleware) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		retrying := retry(func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err != nil && !shouldRetry(logger, err) {
				if pf, ok := msg.Context().Value(permanentKey{}).(*permanentFailure); ok {
					pf.err = err
					return msgs, nil
				}
			}
			return msgs, err
		})

		return func(msg *message.Message) ([]*message.Message, error) {
			pf := &permanentFailure{}
			msg.SetContext(context.WithValue(msg.Context(), permanentKey{}, pf))

			msgs, err := retrying(msg)
			if err == nil && pf.err != nil {
				return nil, pf.err
			}
			return msgs, err
		}
	}
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(err)
				r.logger.Errorw("handler failed",
					"handler", handlerName,
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)

	for _, middleware := range middlewares {
		handler.AddMiddleware(middleware)
	}
}

// Run starts the router and blocks until ctx is done or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting router")
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing router")
	return r.router.Close()
}

// newPoisonPublisher keeps poisoned triggers in process; they are logged and
// reported by the handler wrapper before landing here
func newPoisonPublisher() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			Persistent: false,
		},
		watermill.NewStdLogger(false, false),
	)
}
