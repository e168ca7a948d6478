package queue

import (
	"context"
	"errors"
	"sync/atomic"
)

// DurableQueue pairs an Enqueuer with the Worker draining the same storage.
type DurableQueue struct {
	enqueuer *Enqueuer
	worker   *Worker
	closed   atomic.Bool
}

// NewDurableQueue wires an enqueuer and a worker over one storage.
// The worker is not started.
func NewDurableQueue(enqueuer *Enqueuer, worker *Worker) *DurableQueue {
	return &DurableQueue{enqueuer: enqueuer, worker: worker}
}

// Start launches the worker.
func (q *DurableQueue) Start(ctx context.Context) error {
	return q.worker.Start(ctx)
}

// Enqueue persists the job. Storage failures are wrapped in ErrBroker.
func (q *DurableQueue) Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (Handle, error) {
	if q.closed.Load() {
		return Handle{}, ErrQueueClosed
	}
	return q.enqueuer.Enqueue(ctx, payload, opts...)
}

// Mode reports ModeDurable.
func (q *DurableQueue) Mode() Mode { return ModeDurable }

// Shutdown stops intake and waits for in-flight jobs until ctx is done.
// Jobs still queued stay in storage for the next process.
func (q *DurableQueue) Shutdown(ctx context.Context) error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := q.worker.Stop(ctx); err != nil && !errors.Is(err, ErrWorkerNotRunning) {
		return err
	}
	return nil
}
