package obligation

import (
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
)

// NextInstallmentDue returns the first occurrence of the plan strictly after
// today. Occurrences are anchor + n intervals, always counted from the
// original anchor, so month-end anchors follow time.AddDate normalization
// (Jan 31 + 1 month = Mar 2/3) instead of drifting. Returns nil when the
// invoice has no plan.
func NextInstallmentDue(anchor *time.Time, interval domain.Interval, today time.Time) *time.Time {
	if anchor == nil {
		return nil
	}
	switch interval {
	case domain.IntervalMonthly, domain.IntervalWeekly:
	default:
		return nil
	}

	y, m, d := anchor.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
	todayDate := DateOnly(today)

	for n := skipAhead(first, interval, todayDate); ; n++ {
		candidate := occurrence(first, interval, n)
		if DateOnly(candidate).After(todayDate) {
			return &candidate
		}
	}
}

// InstallmentsElapsed is the number of plan occurrences on or before today,
// i.e. the installments that should have been paid by now.
func InstallmentsElapsed(anchor *time.Time, interval domain.Interval, today time.Time) int {
	next := NextInstallmentDue(anchor, interval, today)
	if next == nil {
		return 0
	}
	y, m, d := anchor.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
	for n := 0; ; n++ {
		if occurrence(first, interval, n).Equal(*next) {
			return n
		}
	}
}

func occurrence(first time.Time, interval domain.Interval, n int) time.Time {
	if interval == domain.IntervalWeekly {
		return first.AddDate(0, 0, 7*n)
	}
	return first.AddDate(0, n, 0)
}

// skipAhead returns a lower bound for n so anchors far in the past do not
// walk every interval. It undershoots by one interval to stay safe around
// month-length rollover.
func skipAhead(first time.Time, interval domain.Interval, today time.Time) int {
	days := DaysBetween(first, today)
	if days <= 0 {
		return 0
	}
	var n int
	if interval == domain.IntervalWeekly {
		n = days/7 - 1
	} else {
		fy, fm, _ := first.Date()
		ty, tm, _ := today.Date()
		n = (ty-fy)*12 + int(tm-fm) - 1
	}
	if n < 0 {
		return 0
	}
	return n
}
