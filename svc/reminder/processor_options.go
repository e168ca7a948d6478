package reminder

import (
	"log/slog"
	"time"
)

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBatchSize caps how many due reminders one run loads. Defaults to 100.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithConcurrency sets how many reminders of a batch are handled at once. Defaults to 1.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithFallbackDeliverer sets the sender used for one last synchronous
// attempt when the queue reports a delivery failure.
func WithFallbackDeliverer(d Deliverer) ProcessorOption {
	return func(p *Processor) {
		p.fallback = d
	}
}

func WithBatchObserver(o BatchObserver) ProcessorOption {
	return func(p *Processor) {
		p.observer = o
	}
}

func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSubject overrides how a reminder's notification subject is built.
func WithSubject(fn func(Reminder) string) ProcessorOption {
	return func(p *Processor) {
		if fn != nil {
			p.subject = fn
		}
	}
}
