package repository

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/cache"
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/domain/template"
	"github.com/flexprice/billing-notifier/internal/domain/tenant"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockTenantRepo struct{ mock.Mock }

func (m *mockTenantRepo) Get(ctx context.Context, id int64) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

type mockTemplateRepo struct{ mock.Mock }

func (m *mockTemplateRepo) GetActive(ctx context.Context, tenantID int64, docType types.DocumentType) (*template.Template, error) {
	args := m.Called(ctx, tenantID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*template.Template), args.Error(1)
}

type mockClientPackageRepo struct{ mock.Mock }

func (m *mockClientPackageRepo) GetGraceDays(ctx context.Context, clientPackageID int64) (*int, error) {
	args := m.Called(ctx, clientPackageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

type CachedRepositorySuite struct {
	suite.Suite
	ctx   context.Context
	cache cache.Cache
}

func TestCachedRepositories(t *testing.T) {
	suite.Run(t, new(CachedRepositorySuite))
}

func (s *CachedRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	cfg := &config.Configuration{Cache: config.CacheConfig{Enabled: true, TTL: time.Minute}}
	s.cache = cache.NewInMemoryCache(cfg, logger.NewNopLogger())
}

func (s *CachedRepositorySuite) TestTenantLookupHitsStoreOnce() {
	next := new(mockTenantRepo)
	next.On("Get", mock.Anything, int64(1)).Return(&tenant.Tenant{ID: 1, Name: "Servicios Andinos SAS"}, nil).Once()

	repo := NewCachedTenantRepository(next, s.cache)
	for i := 0; i < 3; i++ {
		t, err := repo.Get(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal("Servicios Andinos SAS", t.Name)
	}
	next.AssertNumberOfCalls(s.T(), "Get", 1)
}

func (s *CachedRepositorySuite) TestMissesAreNotCached() {
	next := new(mockTemplateRepo)
	notFound := ierr.NewError("no active template").Mark(ierr.ErrNotFound)
	next.On("GetActive", mock.Anything, int64(2), types.DocumentTypeInvoice).Return(nil, notFound).Once()
	next.On("GetActive", mock.Anything, int64(2), types.DocumentTypeInvoice).Return(&template.Template{ID: 5}, nil).Once()

	repo := NewCachedTemplateRepository(next, s.cache)

	_, err := repo.GetActive(s.ctx, 2, types.DocumentTypeInvoice)
	s.True(ierr.IsNotFound(err))

	t, err := repo.GetActive(s.ctx, 2, types.DocumentTypeInvoice)
	s.Require().NoError(err)
	s.Equal(int64(5), t.ID)

	_, err = repo.GetActive(s.ctx, 2, types.DocumentTypeInvoice)
	s.Require().NoError(err)
	next.AssertNumberOfCalls(s.T(), "GetActive", 2)
}

func (s *CachedRepositorySuite) TestNilGraceDaysAreCached() {
	next := new(mockClientPackageRepo)
	next.On("GetGraceDays", mock.Anything, int64(70)).Return((*int)(nil), nil).Once()
	next.On("GetGraceDays", mock.Anything, int64(71)).Return(lo.ToPtr(5), nil).Once()

	repo := NewCachedClientPackageRepository(next, s.cache)

	for i := 0; i < 2; i++ {
		days, err := repo.GetGraceDays(s.ctx, 70)
		s.Require().NoError(err)
		s.Nil(days)

		days, err = repo.GetGraceDays(s.ctx, 71)
		s.Require().NoError(err)
		s.Equal(5, *days)
	}
	next.AssertExpectations(s.T())
	next.AssertNumberOfCalls(s.T(), "GetGraceDays", 2)
}
