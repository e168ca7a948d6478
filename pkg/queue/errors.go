package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrHandlerNil is returned when a nil handler is provided.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrInvalidPriority is returned when priority is outside 0..100.
	ErrInvalidPriority = errors.New("priority must be between 0 and 100")

	// ErrInvalidPayload is returned when a payload has no channel or recipient.
	ErrInvalidPayload = errors.New("payload requires channel and recipient")

	// ErrNoJobToClaim is returned by storages when nothing is ready to run.
	ErrNoJobToClaim = errors.New("no job available to claim")

	// ErrJobNotFound is returned when a job id is unknown to the storage.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotProcessing is returned when a job is finalized without holding a lock.
	ErrJobNotProcessing = errors.New("job is not in processing state")

	// ErrBroker wraps failures of the durable backend.
	ErrBroker = errors.New("queue broker error")

	// ErrDeliveryFailed wraps handler failures surfaced by immediate mode.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrNotConfigured is reported when no broker is configured.
	ErrNotConfigured = errors.New("queue broker not configured")

	// ErrQueueClosed is returned by Enqueue after Shutdown.
	ErrQueueClosed = errors.New("queue is shut down")

	// ErrWorkerRunning is returned when Start is called twice.
	ErrWorkerRunning = errors.New("worker already started")

	// ErrWorkerNotRunning is returned when Stop is called on an idle worker.
	ErrWorkerNotRunning = errors.New("worker not started")
)
