package main

import (
	"context"
	"time"

	"github.com/flexprice/billing-notifier/internal/api"
	v1 "github.com/flexprice/billing-notifier/internal/api/v1"
	"github.com/flexprice/billing-notifier/internal/cache"
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/document"
	"github.com/flexprice/billing-notifier/internal/email"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/payment"
	"github.com/flexprice/billing-notifier/internal/postgres"
	"github.com/flexprice/billing-notifier/internal/pubsub"
	"github.com/flexprice/billing-notifier/internal/pubsub/kafka"
	"github.com/flexprice/billing-notifier/internal/pubsub/memory"
	"github.com/flexprice/billing-notifier/internal/pubsub/nats"
	pubsubRouter "github.com/flexprice/billing-notifier/internal/pubsub/router"
	"github.com/flexprice/billing-notifier/internal/repository"
	"github.com/flexprice/billing-notifier/internal/sentry"
	"github.com/flexprice/billing-notifier/internal/service"
	"github.com/flexprice/billing-notifier/internal/storage"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/flexprice/billing-notifier/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// HTTP Client
			provideHTTPClient,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewClientRepository,
			repository.NewTenantRepository,
			repository.NewTemplateRepository,
			repository.NewClientPackageRepository,

			// External collaborators
			payment.NewLinkResolver,
			storage.NewStorage,
			document.NewGenerator,
			provideEmailProvider,
			provideEmailDispatcher,

			// PubSub
			providePubSubs,
			provideEventPublisher,
			pubsubRouter.NewRouter,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewCohortWalker,
			service.NewGenerationService,
			service.NewDispatchService,
			service.NewNotificationService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// pubSubs holds one connection per consumer group. Generation and dispatch keep
// separate groups so each stage tracks its own position on the bus.
type pubSubs struct {
	generation pubsub.PubSub
	dispatch   pubsub.PubSub
}

func providePubSubs(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*pubSubs, error) {
	var ps *pubSubs

	switch cfg.PubSub.Type {
	case types.MemoryPubSub:
		shared := memory.NewPubSub(log)
		ps = &pubSubs{generation: shared, dispatch: shared}

	case types.KafkaPubSub:
		generation, err := kafka.NewPubSub(cfg, log, cfg.Notification.ConsumerGroup)
		if err != nil {
			return nil, err
		}
		dispatch, err := kafka.NewPubSub(cfg, log, cfg.Notification.DispatchConsumerGroup())
		if err != nil {
			_ = generation.Close()
			return nil, err
		}
		ps = &pubSubs{generation: generation, dispatch: dispatch}

	case types.NATSPubSub:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		topics := []string{
			cfg.Notification.GenerationCompletedTopic,
			cfg.Notification.DocumentsGeneratedTopic,
		}
		generation, err := nats.NewPubSub(ctx, cfg, log, cfg.Notification.ConsumerGroup, topics...)
		if err != nil {
			return nil, err
		}
		dispatch, err := nats.NewPubSub(ctx, cfg, log, cfg.Notification.DispatchConsumerGroup(), topics...)
		if err != nil {
			_ = generation.Close()
			return nil, err
		}
		ps = &pubSubs{generation: generation, dispatch: dispatch}

	default:
		return nil, cfg.PubSub.Type.Validate()
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing pubsub connections")
			if ps.dispatch != ps.generation {
				if err := ps.dispatch.Close(); err != nil {
					log.Errorw("failed to close dispatch pubsub", "error", err)
				}
			}
			return ps.generation.Close()
		},
	})

	return ps, nil
}

func provideEventPublisher(ps *pubSubs, cfg *config.Configuration, log *logger.Logger) events.Publisher {
	return events.NewPublisher(ps.generation, cfg, log)
}

func provideHTTPClient(cfg *config.Configuration, log *logger.Logger) httpclient.Client {
	return httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout:    cfg.Payments.Timeout,
		MaxRetries: cfg.Payments.MaxRetries,
	}, log)
}

func provideEmailProvider(cfg *config.Configuration, log *logger.Logger) (email.Provider, error) {
	return email.NewProvider(&cfg.Email, log)
}

func provideEmailDispatcher(cfg *config.Configuration, provider email.Provider, client httpclient.Client, log *logger.Logger) email.Dispatcher {
	return email.NewService(cfg, provider, client, log)
}

func provideHandlers(
	logger *logger.Logger,
	notificationService service.NotificationService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Notification: v1.NewNotificationHandler(notificationService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	ps *pubSubs,
	generationService service.GenerationService,
	dispatchService service.DispatchService,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})

	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, ps, generationService, dispatchService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startMessageRouter(lc, router, ps, generationService, dispatchService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	ps *pubSubs,
	generationService service.GenerationService,
	dispatchService service.DispatchService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	generationService.RegisterHandler(router, ps.generation)
	dispatchService.RegisterHandler(router, ps.dispatch)

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(runCtx); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			cancel()
			return router.Close()
		},
	})
}
