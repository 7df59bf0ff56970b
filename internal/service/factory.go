package service

import (
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/document"
	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/clientpackage"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	"github.com/flexprice/billing-notifier/internal/email"
	"github.com/flexprice/billing-notifier/internal/events"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/payment"
	"github.com/flexprice/billing-notifier/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Sentry *sentry.Service

	// Repositories
	InvoiceRepo       invoice.Repository
	ClientRepo        client.Repository
	TenantRepo        tenant.Repository
	TemplateRepo      template.Repository
	ClientPackageRepo clientpackage.Repository

	// External collaborators
	LinkResolver      payment.LinkResolver
	DocumentGenerator document.Generator
	EmailDispatcher   email.Dispatcher

	// Publishers
	EventPublisher events.Publisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentry *sentry.Service,
	invoiceRepo invoice.Repository,
	clientRepo client.Repository,
	tenantRepo tenant.Repository,
	templateRepo template.Repository,
	clientPackageRepo clientpackage.Repository,
	linkResolver payment.LinkResolver,
	documentGenerator document.Generator,
	emailDispatcher email.Dispatcher,
	eventPublisher events.Publisher,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		Sentry:            sentry,
		InvoiceRepo:       invoiceRepo,
		ClientRepo:        clientRepo,
		TenantRepo:        tenantRepo,
		TemplateRepo:      templateRepo,
		ClientPackageRepo: clientPackageRepo,
		LinkResolver:      linkResolver,
		DocumentGenerator: documentGenerator,
		EmailDispatcher:   emailDispatcher,
		EventPublisher:    eventPublisher,
	}
}
