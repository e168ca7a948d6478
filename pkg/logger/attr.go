package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Nil errors produce an empty attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UserID records the user identifier under "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// GoalID records the goal identifier under "goal_id".
func GoalID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("goal_id", id)
}

// ReminderID records the reminder identifier under "reminder_id".
func ReminderID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("reminder_id", id)
}

// JobID records a queue job identifier under "job_id".
func JobID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("job_id", id)
}

// WorkerID records a queue worker identifier under "worker_id".
func WorkerID(id any) slog.Attr {
	return slog.Any("worker_id", id)
}

// Channel records the delivery channel under "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// Attempts records how many times a job ran under "attempts".
func Attempts(n int) slog.Attr {
	return slog.Int("attempts", n)
}

// Mode records the queue mode under "mode".
func Mode(name string) slog.Attr {
	return slog.String("mode", name)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Count records n under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}
