package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval    time.Duration
	lockTimeout     time.Duration
	reapInterval    time.Duration
	finalizeTimeout time.Duration
	backoffBase     time.Duration
	maxBackoff      time.Duration
	concurrency     int
	logger          *slog.Logger
	events          EventSink
	onBrokerError   func(error)
}

// WithPollInterval sets how often the worker checks for ready jobs
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed job stays locked to this worker.
// It also bounds a single handler call.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithReapInterval sets how often expired locks are looked for.
func WithReapInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.reapInterval = d
		}
	}
}

// WithBackoff sets the retry delay base and its cap.
func WithBackoff(base, maxDelay time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if base > 0 {
			o.backoffBase = base
		}
		if maxDelay > 0 {
			o.maxBackoff = maxDelay
		}
	}
}

// WithConcurrency sets the maximum number of jobs handled at once
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventSink sets where lifecycle events go.
func WithEventSink(sink EventSink) WorkerOption {
	return func(o *workerOptions) {
		o.events = sink
	}
}

// WithBrokerErrorHook registers a callback for storage failures seen by the worker.
// The callback may run concurrently from several goroutines.
func WithBrokerErrorHook(fn func(error)) WorkerOption {
	return func(o *workerOptions) {
		o.onBrokerError = fn
	}
}
