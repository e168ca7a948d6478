package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for job creation
type EnqueuerRepository interface {
	CreateJob(ctx context.Context, job *Job) error
}

// Enqueuer persists jobs for the durable worker.
type Enqueuer struct {
	repo               EnqueuerRepository
	defaultPriority    Priority
	defaultMaxAttempts int
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		defaultPriority:    PriorityDefault,
		defaultMaxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:               repo,
		defaultPriority:    options.defaultPriority,
		defaultMaxAttempts: options.defaultMaxAttempts,
	}, nil
}

// Enqueue stores a new job. Storage failures are wrapped in ErrBroker unless
// ctx ended first, in which case the context error is returned as is.
func (e *Enqueuer) Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (Handle, error) {
	if err := payload.Validate(); err != nil {
		return Handle{}, err
	}

	options := &enqueueOptions{
		priority:    e.defaultPriority,
		maxAttempts: e.defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.priority.Valid() {
		return Handle{}, ErrInvalidPriority
	}

	job := buildJob(payload, options)
	if err := e.repo.CreateJob(ctx, job); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Handle{}, fmt.Errorf("create %s job for %q: %w", payload.Channel, payload.To, ctxErr)
		}
		return Handle{}, errors.Join(ErrBroker, fmt.Errorf("create %s job for %q: %w", payload.Channel, payload.To, err))
	}

	return Handle{JobID: job.ID, Mode: ModeDurable}, nil
}

func buildJob(payload Payload, options *enqueueOptions) *Job {
	now := time.Now()

	scheduledAt := now
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = now.Add(options.delay)
	}

	return &Job{
		ID:          uuid.New(),
		Payload:     payload,
		Priority:    options.priority,
		MaxAttempts: options.maxAttempts,
		State:       StateQueued,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
	}
}
