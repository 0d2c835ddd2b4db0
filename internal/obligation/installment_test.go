package obligation

import (
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestNextInstallmentDue_MonthlyScenario(t *testing.T) {
	next := NextInstallmentDue(datePtr(2024, 1, 15), domain.IntervalMonthly, date(2024, 3, 20))
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 4, 15), *next)
}

func TestNextInstallmentDue(t *testing.T) {
	tests := []struct {
		name     string
		anchor   *time.Time
		interval domain.Interval
		today    time.Time
		want     *time.Time
	}{
		{
			name:     "no anchor",
			anchor:   nil,
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 20),
			want:     nil,
		},
		{
			name:     "no interval",
			anchor:   datePtr(2024, 1, 15),
			interval: domain.IntervalNone,
			today:    date(2024, 3, 20),
			want:     nil,
		},
		{
			name:     "anchor is today",
			anchor:   datePtr(2024, 3, 20),
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 20),
			want:     datePtr(2024, 4, 20),
		},
		{
			name:     "anchor in the future",
			anchor:   datePtr(2024, 5, 1),
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 20),
			want:     datePtr(2024, 5, 1),
		},
		{
			name:     "occurrence falls on today",
			anchor:   datePtr(2024, 1, 20),
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 20),
			want:     datePtr(2024, 4, 20),
		},
		{
			name:     "weekly",
			anchor:   datePtr(2024, 3, 1),
			interval: domain.IntervalWeekly,
			today:    date(2024, 3, 20),
			want:     datePtr(2024, 3, 22),
		},
		{
			name:     "weekly on occurrence day",
			anchor:   datePtr(2024, 3, 1),
			interval: domain.IntervalWeekly,
			today:    date(2024, 3, 22),
			want:     datePtr(2024, 3, 29),
		},
		{
			name:     "month end rolls over like AddDate",
			anchor:   datePtr(2024, 1, 31),
			interval: domain.IntervalMonthly,
			today:    date(2024, 2, 10),
			want:     datePtr(2024, 3, 2),
		},
		{
			name:     "month end counted from the original anchor",
			anchor:   datePtr(2024, 1, 31),
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 10),
			want:     datePtr(2024, 3, 31),
		},
		{
			name:     "anchor years in the past",
			anchor:   datePtr(2019, 6, 5),
			interval: domain.IntervalMonthly,
			today:    date(2024, 3, 20),
			want:     datePtr(2024, 4, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextInstallmentDue(tt.anchor, tt.interval, tt.today)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestNextInstallmentDue_AlwaysAfterTodayAndOnGrid(t *testing.T) {
	anchor := date(2023, 8, 31)
	for _, interval := range []domain.Interval{domain.IntervalMonthly, domain.IntervalWeekly} {
		for offset := -40; offset < 800; offset += 3 {
			today := anchor.AddDate(0, 0, offset)
			next := NextInstallmentDue(&anchor, interval, today)
			require.NotNil(t, next)
			assert.True(t, DateOnly(*next).After(DateOnly(today)), "interval %s offset %d", interval, offset)

			onGrid := false
			for n := 0; n < 200; n++ {
				if occurrence(anchor, interval, n).Equal(*next) {
					onGrid = true
					break
				}
			}
			assert.True(t, onGrid, "interval %s offset %d: %s not reachable from anchor", interval, offset, next)
		}
	}
}

func TestNextInstallmentDue_IgnoresClockTime(t *testing.T) {
	anchor := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)
	today := time.Date(2024, 2, 15, 23, 59, 0, 0, time.UTC)

	next := NextInstallmentDue(&anchor, domain.IntervalMonthly, today)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 3, 15), *next)
}

func TestInstallmentsElapsed(t *testing.T) {
	anchor := datePtr(2024, 1, 15)
	assert.Equal(t, 0, InstallmentsElapsed(nil, domain.IntervalMonthly, date(2024, 3, 20)))
	assert.Equal(t, 0, InstallmentsElapsed(anchor, domain.IntervalMonthly, date(2024, 1, 10)))
	assert.Equal(t, 1, InstallmentsElapsed(anchor, domain.IntervalMonthly, date(2024, 1, 15)))
	assert.Equal(t, 3, InstallmentsElapsed(anchor, domain.IntervalMonthly, date(2024, 3, 20)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2024, 3, 20), date(2024, 3, 20)))
	assert.Equal(t, 5, DaysBetween(date(2024, 3, 15), date(2024, 3, 20)))
	assert.Equal(t, -5, DaysBetween(date(2024, 3, 20), date(2024, 3, 15)))

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err == nil {
		// Crosses the spring DST switch on 2024-03-31.
		from := time.Date(2024, 3, 30, 23, 0, 0, 0, berlin)
		to := time.Date(2024, 4, 1, 0, 30, 0, 0, berlin)
		assert.Equal(t, 2, DaysBetween(from, to))
	}
}

func TestElapsedDays(t *testing.T) {
	from := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ElapsedDays(from, from.Add(15*time.Hour)))
	assert.Equal(t, 1, ElapsedDays(from, from.Add(25*time.Hour)))
	assert.Equal(t, 0, ElapsedDays(from, from.Add(-48*time.Hour)))
}
