// Package timeutil provides calendar helpers for adherence analytics.
// Every calendar computation in the engine uses UTC day boundaries so that
// two requests made at the same instant always agree on what "today" is.
package timeutil

import (
	"time"
)

// Day is 24 hours. Windows such as "last 7 days" are measured in whole Days
// back from an instant, not from midnight.
const Day = 24 * time.Hour

// DateLayout is the layout used for calendar date keys (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Clock returns the current instant. Handlers take a Clock so tests can pin time.
type Clock func() time.Time

// SystemClock returns the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns midnight UTC of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the UTC calendar day containing t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(Day - time.Nanosecond)
}

// DateKey formats the UTC calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses either an RFC3339 instant or a bare YYYY-MM-DD date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DaysAgo returns now minus n whole days.
func DaysAgo(now time.Time, n int) time.Time {
	return now.Add(-time.Duration(n) * Day)
}

// SameDay reports whether a and b fall on the same UTC calendar date.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DayRange returns n consecutive UTC midnights ending with the day containing
// end, oldest first. n <= 0 yields nil.
func DayRange(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	last := StartOfDay(end)
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = last.AddDate(0, 0, i-(n-1))
	}
	return days
}
