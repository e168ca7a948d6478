package queue

import (
	"log/slog"

	"github.com/dmitrymomot/remindkit/pkg/broadcast"
)

// Option configures Open.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger  *slog.Logger
	events  *broadcast.Broadcaster[Event]
	storage Storage
}

// WithLogger sets the logger shared by the queue components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEvents publishes lifecycle events on b. Subscribe before Open to see
// the connected and ready events.
func WithEvents(b *broadcast.Broadcaster[Event]) Option {
	return func(o *serviceOptions) {
		o.events = b
	}
}

// WithStorage uses s as the durable backend instead of dialing Redis.
func WithStorage(s Storage) Option {
	return func(o *serviceOptions) {
		o.storage = s
	}
}
