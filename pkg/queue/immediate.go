package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/remindkit/pkg/logger"
)

// ImmediateQueue runs the handler synchronously inside Enqueue.
// It keeps no state between calls and offers no retries.
type ImmediateQueue struct {
	handler Handler
	logger  *slog.Logger
	events  EventSink
	closed  atomic.Bool
}

// NewImmediateQueue creates a queue that delivers inline.
func NewImmediateQueue(handler Handler, log *slog.Logger, events EventSink) (*ImmediateQueue, error) {
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if log == nil {
		log = slog.Default()
	}
	return &ImmediateQueue{
		handler: handler,
		logger:  log.With(logger.Component("queue.immediate")),
		events:  events,
	}, nil
}

// Enqueue invokes the handler exactly once before returning.
// Handler errors and panics come back wrapped in ErrDeliveryFailed.
// Scheduling options are ignored; priority is still validated.
func (q *ImmediateQueue) Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (Handle, error) {
	if q.closed.Load() {
		return Handle{}, ErrQueueClosed
	}
	if err := payload.Validate(); err != nil {
		return Handle{}, err
	}

	options := &enqueueOptions{priority: PriorityDefault}
	for _, opt := range opts {
		opt(options)
	}
	if !options.priority.Valid() {
		return Handle{}, ErrInvalidPriority
	}

	h := Handle{JobID: uuid.New(), Mode: ModeImmediate}
	start := time.Now()

	if err := q.run(ctx, payload); err != nil {
		q.logger.Error("immediate delivery failed",
			logger.JobID(h.JobID),
			logger.Channel(payload.Channel),
			logger.Duration(time.Since(start)),
			logger.Error(err))
		q.events.emit(Event{Type: EventFailed, JobID: h.JobID, Mode: ModeImmediate, Attempts: 1, Err: err})
		return h, errors.Join(ErrDeliveryFailed, err)
	}

	q.logger.Debug("immediate delivery completed",
		logger.JobID(h.JobID),
		logger.Channel(payload.Channel),
		logger.Duration(time.Since(start)))
	q.events.emit(Event{Type: EventCompleted, JobID: h.JobID, Mode: ModeImmediate, Attempts: 1})

	return h, nil
}

func (q *ImmediateQueue) run(ctx context.Context, payload Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return q.handler.Handle(ctx, payload)
}

// Mode reports ModeImmediate.
func (q *ImmediateQueue) Mode() Mode { return ModeImmediate }

// Shutdown rejects further Enqueue calls. There is nothing to drain.
func (q *ImmediateQueue) Shutdown(context.Context) error {
	q.closed.Store(true)
	return nil
}
