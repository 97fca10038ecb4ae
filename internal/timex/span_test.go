package timex

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(common.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestSpan(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  string
	}{
		{"same day", "2024-05-10", "2024-05-10", "0 days"},
		{"one day", "2024-05-10", "2024-05-11", "1 day"},
		{"three days", "2024-05-10", "2024-05-13", "3 days"},
		{"one year", "2023-01-01", "2024-01-01", "1 year"},
		{"two months", "2024-01-01", "2024-03-01", "2 months"},
		{"year and months", "2022-11-15", "2024-01-15", "1 year 2 months"},
		{"all units", "2021-02-03", "2023-05-20", "2 years 3 months 17 days"},
		{"month end clamp", "2024-01-31", "2024-03-01", "1 month 1 day"},
		{"short month", "2024-01-31", "2024-02-29", "29 days"},
		{"across new year", "2023-12-20", "2024-01-05", "16 days"},
		{"leap day anniversary", "2020-02-29", "2021-02-28", "11 months 30 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Span(date(t, tt.start), date(t, tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpan_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)

	got, err := Span(start, end)
	require.NoError(t, err)
	assert.Equal(t, "1 day", got)
}

func TestSpan_EndBeforeStart(t *testing.T) {
	_, err := Span(date(t, "2024-03-01"), date(t, "2024-01-01"))
	assert.True(t, errors.Is(err, common.ErrInvalidDateRange))
}

func TestSpan_Deterministic(t *testing.T) {
	start := date(t, "2019-07-14")
	end := date(t, "2024-02-03")

	first, err := Span(start, end)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Span(start, end)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.NotEmpty(t, first)
}
