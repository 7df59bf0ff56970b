package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/stretchr/testify/suite"
)

type CohortWalkerSuite struct {
	pipelineSuite
}

func TestCohortWalker(t *testing.T) {
	suite.Run(t, new(CohortWalkerSuite))
}

func (s *CohortWalkerSuite) countAll(visited *[]int64) RecordProcessor {
	return func(ctx context.Context, inv *invoice.Invoice) (bool, error) {
		*visited = append(*visited, inv.ID)
		return true, nil
	}
}

func (s *CohortWalkerSuite) TestPagination() {
	tests := []struct {
		name         string
		records      int
		pageSize     int
		wantFetches  int
		wantLastRows int
	}{
		{name: "exact multiple ends with an empty page", records: 4, pageSize: 2, wantFetches: 3, wantLastRows: 0},
		{name: "remainder ends with a short page", records: 5, pageSize: 2, wantFetches: 3, wantLastRows: 1},
		{name: "single short page", records: 3, pageSize: 500, wantFetches: 1, wantLastRows: 3},
		{name: "empty cohort", records: 0, pageSize: 10, wantFetches: 1, wantLastRows: 0},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.GetStores().InvoiceRepo.Clear()
			s.seedCohort(tt.records)

			var visited []int64
			result, err := s.walker.Walk(s.GetContext(), &WalkParams{
				Name:        "test",
				BillingDate: s.billingDate,
				PageSize:    tt.pageSize,
			}, s.countAll(&visited))
			s.Require().NoError(err)

			calls := s.GetStores().InvoiceRepo.PageCalls()
			s.Len(calls, tt.wantFetches)
			s.Equal(tt.wantLastRows, calls[len(calls)-1].Rows)
			s.Equal(tt.wantFetches, result.Pages)
			s.Equal(tt.records, result.Processed)
			s.Len(visited, tt.records)
		})
	}
}

func (s *CohortWalkerSuite) TestVisitsInIDOrderOnce() {
	for _, id := range []int64{7, 3, 9, 1, 5} {
		s.seedInvoice(id)
	}
	// another billing date is never visited
	s.seedInvoice(42, func(inv *invoice.Invoice) {
		inv.BillingDate = s.billingDate.AddDate(0, 0, 1)
	})

	var visited []int64
	_, err := s.walker.Walk(s.GetContext(), &WalkParams{
		BillingDate: s.billingDate,
		PageSize:    2,
	}, s.countAll(&visited))
	s.Require().NoError(err)
	s.Equal([]int64{1, 3, 5, 7, 9}, visited)
}

func (s *CohortWalkerSuite) TestShrinkingPredicateVisitsEveryRecord() {
	s.seedCohort(5)
	repo := s.GetStores().InvoiceRepo

	var visited []int64
	result, err := s.walker.Walk(s.GetContext(), &WalkParams{
		BillingDate:         s.billingDate,
		PageSize:            2,
		OnlyMissingDocument: true,
	}, func(ctx context.Context, inv *invoice.Invoice) (bool, error) {
		visited = append(visited, inv.ID)
		return true, repo.UpdateDocumentURL(ctx, inv.ID, "https://files.example.com/x.pdf")
	})
	s.Require().NoError(err)

	s.Equal([]int64{1, 2, 3, 4, 5}, visited)
	s.Equal(5, result.Processed)
	s.Equal(3, result.Pages)
}

func (s *CohortWalkerSuite) TestRecordFailuresAreIsolated() {
	s.seedCohort(5)

	var processed []int64
	result, err := s.walker.Walk(s.GetContext(), &WalkParams{
		BillingDate: s.billingDate,
		PageSize:    10,
	}, func(ctx context.Context, inv *invoice.Invoice) (bool, error) {
		switch inv.ID {
		case 2:
			return false, ierr.NewError("conversion failed").Mark(ierr.ErrSystem)
		case 3:
			panic("boom")
		case 4:
			return false, ierr.NewError("no template").Mark(ierr.ErrConfiguration)
		}
		processed = append(processed, inv.ID)
		return true, nil
	})
	s.Require().NoError(err)

	s.Equal([]int64{1, 5}, processed)
	s.Equal(5, result.Visited)
	s.Equal(2, result.Processed)
	s.Equal(2, result.Failed)
	s.Equal(1, result.Skipped)
}

func (s *CohortWalkerSuite) TestPageFetchFailureAborts() {
	s.seedCohort(3)
	s.GetStores().InvoiceRepo.FailFetch(ierr.NewError("connection refused").Mark(ierr.ErrDatabase))

	called := false
	_, err := s.walker.Walk(s.GetContext(), &WalkParams{
		BillingDate: s.billingDate,
		PageSize:    10,
	}, func(ctx context.Context, inv *invoice.Invoice) (bool, error) {
		called = true
		return true, nil
	})
	s.Error(err)
	s.True(ierr.IsDatabase(err))
	s.False(called)
}

func (s *CohortWalkerSuite) TestInvalidPageSize() {
	_, err := s.walker.Walk(s.GetContext(), &WalkParams{BillingDate: time.Now(), PageSize: 0}, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
