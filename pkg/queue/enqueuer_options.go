package queue

import "time"

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	defaultPriority    Priority
	defaultMaxAttempts int
}

// WithDefaultPriority sets the priority used when Enqueue gets none.
func WithDefaultPriority(priority Priority) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if priority.Valid() {
			o.defaultPriority = priority
		}
	}
}

// WithDefaultMaxAttempts sets the attempt ceiling used when Enqueue gets none.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if n > 0 {
			o.defaultMaxAttempts = n
		}
	}
}

// EnqueueOption is a functional option for the Enqueue method
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	priority    Priority
	maxAttempts int
	delay       time.Duration
	scheduledAt *time.Time
}

// WithPriority sets the priority for the job
func WithPriority(priority Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = priority
	}
}

// WithMaxAttempts sets the attempt ceiling for the job (1-10).
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 && n <= 10 {
			o.maxAttempts = n
		}
	}
}

// WithDelay postpones the first attempt.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithScheduledAt sets a specific time for the first attempt.
func WithScheduledAt(scheduledAt time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = &scheduledAt
	}
}
