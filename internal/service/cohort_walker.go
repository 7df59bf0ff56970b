package service

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/billing-notifier/internal/domain/invoice"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/sentry"
	"github.com/flexprice/billing-notifier/internal/types"
)

// RecordProcessor handles one invoice of a cohort. It returns true when the
// record counts as processed. A record that is skipped returns false and no error.
type RecordProcessor func(ctx context.Context, inv *invoice.Invoice) (bool, error)

// WalkParams selects the cohort a walk visits
type WalkParams struct {
	// Name labels the walk in logs
	Name                string
	BillingDate         time.Time
	PageSize            int
	OnlyMissingDocument bool
}

// WalkResult summarizes one walk over a cohort
type WalkResult struct {
	Pages     int
	Visited   int
	Processed int
	Skipped   int
	Failed    int
}

// CohortWalker visits every invoice of a billing date page by page
type CohortWalker interface {
	Walk(ctx context.Context, params *WalkParams, process RecordProcessor) (*WalkResult, error)
}

type cohortWalker struct {
	ServiceParams
}

func NewCohortWalker(params ServiceParams) CohortWalker {
	return &cohortWalker{ServiceParams: params}
}

// Walk fetches pages ordered by id and runs process on every record sequentially.
// Pages are fetched with a keyset cursor so rows that leave the filter while the
// walk runs never shift unvisited rows out of reach. A record failure is logged
// and the walk continues. Only a page fetch failure aborts the walk.
func (w *cohortWalker) Walk(ctx context.Context, params *WalkParams, process RecordProcessor) (*WalkResult, error) {
	if params == nil || params.PageSize <= 0 {
		return nil, ierr.NewError("page size must be positive").
			WithHint("Invalid page size for cohort walk").
			Mark(ierr.ErrValidation)
	}

	billingDate := types.StartOfDayUTC(params.BillingDate)
	result := &WalkResult{}

	txn, ctx := w.Sentry.StartTransaction(ctx, "cohort."+params.Name)
	defer sentry.FinishSpan(txn)
	offset := 0
	var lastID int64

	w.Logger.Infow("starting cohort walk",
		"walk", params.Name,
		"billing_date", billingDate.Format(types.DateLayout),
		"page_size", params.PageSize,
		"only_missing_document", params.OnlyMissingDocument,
	)

	for {
		span, pageCtx := w.Sentry.StartSpan(ctx, "cohort.page", map[string]interface{}{
			"after_id": lastID,
			"limit":    params.PageSize,
		})
		page, total, err := w.InvoiceRepo.FetchPage(pageCtx, &invoice.PageFilter{
			BillingDate:         billingDate,
			OnlyMissingDocument: params.OnlyMissingDocument,
			AfterID:             lastID,
			Limit:               params.PageSize,
		})
		result.Pages++
		if err != nil {
			sentry.FinishSpan(span)
			w.Logger.Errorw("failed to fetch cohort page",
				"walk", params.Name,
				"error", err,
				"billing_date", billingDate.Format(types.DateLayout),
				"offset", offset,
			)
			return result, err
		}

		if len(page) == 0 {
			sentry.FinishSpan(span)
			break
		}

		w.Logger.Debugw("processing cohort page",
			"walk", params.Name,
			"offset", offset,
			"page_rows", len(page),
			"cohort_total", total,
		)

		for _, inv := range page {
			result.Visited++
			ok, err := w.processRecord(pageCtx, params.Name, inv, process)
			switch {
			case err != nil && isDataGap(err):
				result.Skipped++
			case err != nil:
				result.Failed++
			case ok:
				result.Processed++
			default:
				result.Skipped++
			}
		}

		sentry.FinishSpan(span)

		lastID = page[len(page)-1].ID
		offset += params.PageSize

		if len(page) < params.PageSize {
			break
		}
	}

	w.Logger.Infow("finished cohort walk",
		"walk", params.Name,
		"billing_date", billingDate.Format(types.DateLayout),
		"pages", result.Pages,
		"visited", result.Visited,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

// processRecord isolates one record: errors and panics are logged and reported,
// never returned to the page loop as a reason to stop
func (w *cohortWalker) processRecord(ctx context.Context, walk string, inv *invoice.Invoice, process RecordProcessor) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = ierr.WithError(errors.Newf("panic: %v", r)).
				WithHintf("Processing of invoice %d panicked", inv.ID).
				Mark(ierr.ErrSystem)
			w.reportFailure(walk, inv, err)
		}
	}()

	ok, err = process(types.SetInvoiceID(ctx, inv.ID), inv)
	if err != nil {
		w.reportFailure(walk, inv, err)
	}
	return ok, err
}

// reportFailure logs data and configuration gaps as warnings and everything else
// as errors captured by sentry
func (w *cohortWalker) reportFailure(walk string, inv *invoice.Invoice, err error) {
	if isDataGap(err) {
		w.Logger.Warnw("skipping invoice",
			"walk", walk,
			"invoice_id", inv.ID,
			"reason", err.Error(),
		)
		w.Sentry.AddBreadcrumb("cohort", "skipped invoice", map[string]interface{}{
			"walk":       walk,
			"invoice_id": inv.ID,
		})
		return
	}

	w.Logger.Errorw("failed to process invoice",
		"walk", walk,
		"invoice_id", inv.ID,
		"error", err,
	)
	w.Sentry.CaptureWithTags(err, map[string]string{
		"walk":         walk,
		"invoice_id":   strconv.FormatInt(inv.ID, 10),
		"billing_date": inv.BillingDate.UTC().Format(types.DateLayout),
	})
}

// isDataGap reports missing or misconfigured data that a retry cannot fix
func isDataGap(err error) bool {
	return ierr.IsConfiguration(err) || ierr.IsNotFound(err)
}
