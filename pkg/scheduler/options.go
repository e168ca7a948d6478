package scheduler

import (
	"log/slog"
	"time"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for the scheduler
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunTimeout bounds every job run. Zero means no bound.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// JobOption configures a single registered job.
type JobOption func(*job)

// RunOnStart makes the job run as soon as Start is called instead of waiting
// for the first occurrence.
func RunOnStart() JobOption {
	return func(j *job) {
		j.runOnStart = true
	}
}
