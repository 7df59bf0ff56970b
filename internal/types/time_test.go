package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "plain date",
			input: "2025-01-10",
			want:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 is truncated to the utc day",
			input: "2025-01-10T18:30:00Z",
			want:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset is converted before truncation",
			input: "2025-01-10T21:00:00-05:00",
			want:  time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			input:   "  ",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "10/01/2025",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBillingDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestDayRangeUTC(t *testing.T) {
	start, end := DayRangeUTC(time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestAddDaysUTC(t *testing.T) {
	base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), AddDaysUTC(base, 5))
	assert.Equal(t, base, AddDaysUTC(base, 0))
	assert.Equal(t, base, AddDaysUTC(base, -3))
	assert.Equal(t, time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), AddDaysUTC(base, 30))
}
