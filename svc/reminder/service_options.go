package reminder

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the time zone goal reminders are scheduled in. Defaults to UTC.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCreateGrace sets how far in the past RemindAt may be at creation.
func WithCreateGrace(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithGoalReminderHour sets the local hour goal reminders fire at. Defaults to 9.
func WithGoalReminderHour(hour int) ServiceOption {
	return func(s *Service) {
		if hour >= 0 && hour < 24 {
			s.goalHour = hour
		}
	}
}
