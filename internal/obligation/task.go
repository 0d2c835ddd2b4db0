package obligation

import "time"

// TaskOverdue is the overdue state of a recurring inspection category
type TaskOverdue struct {
	IsOverdue   bool
	DaysOverdue int
	DaysSince   int  // whole days since the last completed run
	NeverRun    bool // no completed run exists; DaysOverdue is the threshold fallback
}

// DeriveTaskOverdue compares the time since the last completed run against
// the category's threshold. Without any completed run the task counts as
// overdue by exactly the threshold.
func DeriveTaskOverdue(lastCompletedAt *time.Time, thresholdDays int, now time.Time) TaskOverdue {
	if thresholdDays < 1 {
		thresholdDays = 1
	}

	if lastCompletedAt == nil {
		return TaskOverdue{
			IsOverdue:   true,
			DaysOverdue: thresholdDays,
			NeverRun:    true,
		}
	}

	elapsed := ElapsedDays(*lastCompletedAt, now)
	overdue := elapsed - thresholdDays
	if overdue < 0 {
		overdue = 0
	}

	return TaskOverdue{
		IsOverdue:   elapsed >= thresholdDays,
		DaysOverdue: overdue,
		DaysSince:   elapsed,
	}
}
