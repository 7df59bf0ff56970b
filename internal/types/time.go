package types

import (
	"strings"
	"time"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

const DateLayout = "2006-01-02"

func ParseTime(t string) (time.Time, error) {
	return time.Parse(time.RFC3339, t)
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// StartOfDayUTC truncates t to 00:00 of its UTC calendar day
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayRangeUTC returns the half-open interval [d 00:00, d+1 00:00) in UTC
func DayRangeUTC(t time.Time) (time.Time, time.Time) {
	start := StartOfDayUTC(t)
	return start, start.AddDate(0, 0, 1)
}

// ParseBillingDate accepts either YYYY-MM-DD or RFC3339 and normalizes the
// result to the start of its UTC day.
func ParseBillingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ierr.NewError("billing date is empty").
			WithHint("A billing date is required").
			Mark(ierr.ErrValidation)
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid billing date %q, expected YYYY-MM-DD or RFC3339", s).
			Mark(ierr.ErrValidation)
	}
	return StartOfDayUTC(t), nil
}

// AddDaysUTC adds n calendar days to t in UTC. Negative n is treated as 0.
func AddDaysUTC(t time.Time, n int) time.Time {
	if n <= 0 {
		return t.UTC()
	}
	return t.UTC().AddDate(0, 0, n)
}
