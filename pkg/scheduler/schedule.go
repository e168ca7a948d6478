package scheduler

import (
	"fmt"
	"time"
)

// Schedule yields the next run time strictly after from.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// Interval fires a fixed duration after the previous run finished, so a slow
// run pushes the following one back instead of stacking up.
type Interval time.Duration

func (i Interval) Next(from time.Time) time.Time { return from.Add(time.Duration(i)) }

func (i Interval) String() string { return "every " + time.Duration(i).String() }

// Daily fires once a day at a wall-clock time in Loc (UTC when nil).
type Daily struct {
	Hour, Minute int
	Loc          *time.Location
}

func (d Daily) Next(from time.Time) time.Time {
	loc := d.Loc
	if loc == nil {
		loc = time.UTC
	}
	local := from.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(from) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

func (d Daily) String() string {
	loc := "UTC"
	if d.Loc != nil {
		loc = d.Loc.String()
	}
	return fmt.Sprintf("daily at %02d:%02d %s", d.Hour, d.Minute, loc)
}

// EveryInterval returns an Interval. Non-positive durations become one second.
func EveryInterval(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Second
	}
	return Interval(d)
}

// DailyAt returns a Daily schedule in UTC. Out-of-range values are clamped.
func DailyAt(hour, minute int) Schedule {
	return Daily{Hour: min(max(hour, 0), 23), Minute: min(max(minute, 0), 59)}
}
