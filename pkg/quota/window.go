package quota

import "time"

// Expired reports whether a window started at start has ended as of now.
//
// A start in the future (clock rollback, corrupted record) is treated as
// not expired; the window resolves itself once the clock catches up.
func (p Policy) Expired(start, now time.Time) bool {
	if start.After(now) {
		return false
	}

	switch p.Mode {
	case WindowWeekly:
		return startOfWeek(now).After(startOfWeek(start))
	case WindowLifetime:
		return false
	case WindowDuration:
		return now.Sub(start) >= p.Duration
	default:
		return false
	}
}

// NextStart returns the start of the window containing now.
func (p Policy) NextStart(now time.Time) time.Time {
	if p.Mode == WindowWeekly {
		return startOfWeek(now)
	}
	return now
}

// startOfWeek returns Monday 00:00:00 UTC of the week containing t.
// This is the single definition of a week boundary; every weekly policy
// goes through it so features can never disagree on when a week turns.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday-start week
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(weekday - 1))
}
