package obligation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTaskOverdue(t *testing.T) {
	current := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		at := current.Add(-d)
		return &at
	}

	tests := []struct {
		name      string
		last      *time.Time
		threshold int
		want      TaskOverdue
	}{
		{
			name:      "daily never run uses fallback",
			last:      nil,
			threshold: 1,
			want:      TaskOverdue{IsOverdue: true, DaysOverdue: 1, NeverRun: true},
		},
		{
			name:      "monthly never run uses fallback",
			last:      nil,
			threshold: 30,
			want:      TaskOverdue{IsOverdue: true, DaysOverdue: 30, NeverRun: true},
		},
		{
			name:      "weekly done three days ago",
			last:      ago(3 * 24 * time.Hour),
			threshold: 7,
			want:      TaskOverdue{IsOverdue: false, DaysOverdue: 0, DaysSince: 3},
		},
		{
			name:      "weekly done exactly seven days ago",
			last:      ago(7 * 24 * time.Hour),
			threshold: 7,
			want:      TaskOverdue{IsOverdue: true, DaysOverdue: 0, DaysSince: 7},
		},
		{
			name:      "weekly done ten days ago",
			last:      ago(10*24*time.Hour + 2*time.Hour),
			threshold: 7,
			want:      TaskOverdue{IsOverdue: true, DaysOverdue: 3, DaysSince: 10},
		},
		{
			name:      "daily done fifteen hours ago",
			last:      ago(15 * time.Hour),
			threshold: 1,
			want:      TaskOverdue{IsOverdue: false, DaysOverdue: 0, DaysSince: 0},
		},
		{
			name:      "completion in the future counts as fresh",
			last:      ago(-2 * time.Hour),
			threshold: 1,
			want:      TaskOverdue{IsOverdue: false, DaysOverdue: 0, DaysSince: 0},
		},
		{
			name:      "invalid threshold treated as one day",
			last:      ago(36 * time.Hour),
			threshold: 0,
			want:      TaskOverdue{IsOverdue: true, DaysOverdue: 0, DaysSince: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTaskOverdue(tt.last, tt.threshold, current))
		})
	}
}
