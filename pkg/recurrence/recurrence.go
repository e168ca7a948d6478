package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRule is returned when a rule name is not recognised.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Rule describes how a reminder re-schedules itself after firing.
type Rule string

const (
	None    Rule = "none"
	Daily   Rule = "daily"
	Weekly  Rule = "weekly"
	Monthly Rule = "monthly"
)

// Valid reports whether r is one of the known rules.
func (r Rule) Valid() bool {
	switch r {
	case None, Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Repeats reports whether r produces successors.
func (r Rule) Repeats() bool {
	return r != None && r.Valid()
}

func (r Rule) String() string {
	return string(r)
}

// ParseRule converts s to a Rule. The empty string maps to None.
func ParseRule(s string) (Rule, error) {
	if s == "" {
		return None, nil
	}
	r := Rule(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRule, s)
	}
	return r, nil
}

// Next returns the occurrence following remindAt.
// It reports false when the rule does not repeat or when the result is after endRepeat.
func Next(remindAt time.Time, rule Rule, endRepeat *time.Time) (time.Time, bool) {
	var next time.Time
	switch rule {
	case Daily:
		next = remindAt.AddDate(0, 0, 1)
	case Weekly:
		next = remindAt.AddDate(0, 0, 7)
	case Monthly:
		next = addMonth(remindAt)
	default:
		return time.Time{}, false
	}

	if endRepeat != nil && next.After(*endRepeat) {
		return time.Time{}, false
	}
	return next, true
}

// NextAfter applies Next until the occurrence is strictly after now.
// Occurrences skipped on the way are not reported.
func NextAfter(remindAt time.Time, rule Rule, endRepeat *time.Time, now time.Time) (time.Time, bool) {
	next, ok := Next(remindAt, rule, endRepeat)
	for ok && !next.After(now) {
		next, ok = Next(next, rule, endRepeat)
	}
	return next, ok
}

// addMonth moves t to the same day of the following month.
// time.AddDate would normalise Jan 31 into Mar 3, so the day is clamped instead.
func addMonth(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	if month == time.December {
		year++
		month = time.January
	} else {
		month++
	}

	day := min(t.Day(), daysInMonth(year, month))
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
