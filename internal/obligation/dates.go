package obligation

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DateOnly strips the clock from t, keeping its calendar date as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from one date to another. Negative when
// to lies before from. DST shifts do not affect the result.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)) / day)
}

// ElapsedDays is floor((to - from) / 24h), clamped at zero.
func ElapsedDays(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Hours() / 24))
}
