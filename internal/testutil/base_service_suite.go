package testutil

import (
	"context"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/document"
	"github.com/flexprice/billing-notifier/internal/email"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/sentry"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/flexprice/billing-notifier/internal/validator"
	"github.com/stretchr/testify/suite"
)

const (
	TestDocumentBaseURL = "https://files.example.com/cuentas"
	TestFromAddress     = "notificaciones@example.com"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo       *InMemoryInvoiceStore
	ClientRepo        *InMemoryClientStore
	TenantRepo        *InMemoryTenantStore
	TemplateRepo      *InMemoryTemplateStore
	ClientPackageRepo *InMemoryClientPackageStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	logger *logger.Logger
	config *config.Configuration
	sentry *sentry.Service
	now    time.Time

	pubSub        *InMemoryPubSub
	linkResolver  *StubLinkResolver
	renderer      *StubRenderer
	storage       *InMemoryStorage
	emailProvider *RecordingEmailProvider
	httpClient    *MockHTTPClient
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: types.ModeLocal},
		Logging:    config.LoggingConfig{Level: types.LogLevelInfo},
		Notification: config.NotificationConfig{
			GenerationCompletedTopic: "generacion_cuentas_cobro_completada",
			DocumentsGeneratedTopic:  "pdfs_cuentas_cobro_generados",
			ConsumerGroup:            "notificaciones",
			PageSize:                 500,
			StepTimeout:              5 * time.Second,
			DocumentType:             types.DocumentTypeInvoice,
		},
		Email: config.EmailConfig{
			Provider:    types.EmailProviderLog,
			FromAddress: TestFromAddress,
			FromName:    "Notificaciones",
		},
		Storage: config.StorageConfig{
			Type:    types.StorageLocal,
			BaseURL: TestDocumentBaseURL,
		},
		Document: config.DocumentConfig{
			Renderer: types.DocumentRendererHTML,
			Timeout:  5 * time.Second,
		},
	}

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		InvoiceRepo:       NewInMemoryInvoiceStore(),
		ClientRepo:        NewInMemoryClientStore(),
		TenantRepo:        NewInMemoryTenantStore(),
		TemplateRepo:      NewInMemoryTemplateStore(),
		ClientPackageRepo: NewInMemoryClientPackageStore(),
	}

	s.pubSub = NewInMemoryPubSub()
	s.linkResolver = NewStubLinkResolver()
	s.renderer = NewStubRenderer()
	s.storage = NewInMemoryStorage(TestDocumentBaseURL)
	s.emailProvider = NewRecordingEmailProvider()
	s.httpClient = NewMockHTTPClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.InvoiceRepo.Clear()
	s.stores.ClientRepo.Clear()
	s.stores.TenantRepo.Clear()
	s.stores.TemplateRepo.Clear()
	s.stores.ClientPackageRepo.Clear()

	s.pubSub.ClearMessages()
	s.linkResolver.Clear()
	s.renderer.Clear()
	s.storage.Clear()
	s.emailProvider.Clear()
	s.httpClient.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetSentry returns a disabled sentry service
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetPubSub returns the bus the event publisher writes to
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubSub
}

// GetEventPublisher returns a publisher over the in-memory bus
func (s *BaseServiceTestSuite) GetEventPublisher() events.Publisher {
	return events.NewPublisher(s.pubSub, s.config, s.logger)
}

// GetLinkResolver returns the recording payment link resolver
func (s *BaseServiceTestSuite) GetLinkResolver() *StubLinkResolver {
	return s.linkResolver
}

// GetRenderer returns the stub document renderer
func (s *BaseServiceTestSuite) GetRenderer() *StubRenderer {
	return s.renderer
}

// GetStorage returns the in-memory document storage
func (s *BaseServiceTestSuite) GetStorage() *InMemoryStorage {
	return s.storage
}

// GetDocumentGenerator returns the real generator over the stub renderer and
// in-memory storage
func (s *BaseServiceTestSuite) GetDocumentGenerator() document.Generator {
	return document.NewGeneratorWithRenderer(
		document.NewLoader(""),
		s.renderer,
		s.storage,
		s.config.Document.Timeout,
		s.logger,
	)
}

// GetEmailProvider returns the recording email provider
func (s *BaseServiceTestSuite) GetEmailProvider() *RecordingEmailProvider {
	return s.emailProvider
}

// GetEmailDispatcher returns the real email service over the recording provider
func (s *BaseServiceTestSuite) GetEmailDispatcher() email.Dispatcher {
	return email.NewService(s.config, s.emailProvider, s.httpClient, s.logger)
}

// GetHTTPClient returns the mock http client
func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
