package repository

import (
	"github.com/flexprice/billing-notifier/internal/cache"
	"github.com/flexprice/billing-notifier/internal/domain/client"
	"github.com/flexprice/billing-notifier/internal/domain/clientpackage"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
	postgresRepo "github.com/flexprice/billing-notifier/internal/repository/postgres"
)

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

// NewTenantRepository returns the tenant store behind the process cache
func NewTenantRepository(db *postgres.DB, c cache.Cache, logger *logger.Logger) tenant.Repository {
	return NewCachedTenantRepository(postgresRepo.NewTenantRepository(db, logger), c)
}

// NewTemplateRepository returns the template store behind the process cache
func NewTemplateRepository(db *postgres.DB, c cache.Cache, logger *logger.Logger) template.Repository {
	return NewCachedTemplateRepository(postgresRepo.NewTemplateRepository(db, logger), c)
}

// NewClientPackageRepository returns the client package store behind the process cache
func NewClientPackageRepository(db *postgres.DB, c cache.Cache, logger *logger.Logger) clientpackage.Repository {
	return NewCachedClientPackageRepository(postgresRepo.NewClientPackageRepository(db, logger), c)
}
