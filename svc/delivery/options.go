package delivery

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/transport"
)

// Option configures a Worker.
type Option func(*Worker)

// WithSender routes channel to s. A nil sender is ignored.
func WithSender(channel string, s transport.Sender) Option {
	return func(w *Worker) {
		if s != nil {
			w.senders[channel] = s
		}
	}
}

// WithRateLimit throttles each channel to perSecond sends with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(w *Worker) {
		w.rate = perSecond
		w.burst = max(burst, 1)
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(w *Worker) {
		w.observer = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// FromConfig applies rate limit and timeout settings from cfg.
func FromConfig(cfg Config) Option {
	return func(w *Worker) {
		WithRateLimit(cfg.RatePerSecond, cfg.Burst)(w)
		WithSendTimeout(cfg.SendTimeout)(w)
	}
}
