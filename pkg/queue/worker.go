package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/remindkit/pkg/logger"
)

// WorkerRepository defines the interface for worker operations
type WorkerRepository interface {
	// ClaimJob locks the highest priority ready job and counts the attempt.
	// It returns ErrNoJobToClaim when nothing is ready.
	ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error)

	// CompleteJob removes a successfully handled job.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// RetryJob releases the lock and makes the job ready again at runAt.
	RetryJob(ctx context.Context, jobID uuid.UUID, errMsg string, runAt time.Time) error

	// MoveToDead parks the job in the dead state for manual inspection.
	MoveToDead(ctx context.Context, jobID uuid.UUID, errMsg string) error

	// ExtendLock pushes the lock deadline of a processing job.
	ExtendLock(ctx context.Context, jobID uuid.UUID, duration time.Duration) error

	// RecoverStalled returns processing jobs whose lock expired before now to the
	// queue, or to the dead state when their attempts are exhausted.
	RecoverStalled(ctx context.Context, now time.Time) (requeued, dead []uuid.UUID, err error)
}

// Worker processes durable jobs
type Worker struct {
	repo     WorkerRepository
	handler  Handler
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex

	pollInterval    time.Duration
	lockTimeout     time.Duration
	reapInterval    time.Duration
	finalizeTimeout time.Duration
	backoffBase     time.Duration
	maxBackoff      time.Duration
	logger          *slog.Logger
	events          EventSink
	onBrokerError   func(error)

	cancel   context.CancelFunc
	loopDone chan struct{}
}

// NewWorker creates a new job worker
func NewWorker(repo WorkerRepository, handler Handler, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	options := &workerOptions{
		pollInterval:    time.Second,
		lockTimeout:     time.Minute,
		reapInterval:    30 * time.Second,
		finalizeTimeout: 10 * time.Second,
		backoffBase:     2 * time.Second,
		maxBackoff:      10 * time.Minute,
		concurrency:     1,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		repo:            repo,
		handler:         handler,
		workerID:        uuid.New(),
		sem:             make(chan struct{}, options.concurrency),
		pollInterval:    options.pollInterval,
		lockTimeout:     options.lockTimeout,
		reapInterval:    options.reapInterval,
		finalizeTimeout: options.finalizeTimeout,
		backoffBase:     options.backoffBase,
		maxBackoff:      options.maxBackoff,
		logger:          options.logger.With(logger.Component("queue.worker")),
		events:          options.events,
		onBrokerError:   options.onBrokerError,
	}, nil
}

// Start begins processing jobs in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.loopDone = make(chan struct{})

	go w.run(runCtx, w.loopDone)

	w.logger.Info("worker started",
		logger.WorkerID(w.workerID.String()),
		slog.Int("concurrency", cap(w.sem)))
	w.events.emit(Event{Type: EventReady, Mode: ModeDurable})

	return nil
}

// Stop cancels polling and waits for in-flight jobs until ctx is done.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotRunning
	}
	cancel, loopDone := w.cancel, w.loopDone
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker stopping, waiting for active jobs to complete",
		logger.WorkerID(w.workerID.String()))

	drained := make(chan struct{})
	go func() {
		<-loopDone
		w.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		w.logger.Info("worker stopped", logger.WorkerID(w.workerID.String()))
		return nil
	case <-ctx.Done():
		w.logger.Warn("worker stop deadline exceeded, jobs still running",
			logger.WorkerID(w.workerID.String()))
		return fmt.Errorf("stop worker: %w", ctx.Err())
	}
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), w.finalizeTimeout)
		defer cancel()
		return w.Stop(stopCtx)
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	reap := time.NewTicker(w.reapInterval)
	defer reap.Stop()

	w.dispatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			w.dispatch(ctx)
		case <-reap.C:
			w.reap(ctx)
		}
	}
}

// dispatch claims jobs until the pool is full or nothing is ready.
func (w *Worker) dispatch(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.sem <- struct{}{}:
		default:
			w.logger.Debug("all worker slots busy, skipping tick",
				logger.WorkerID(w.workerID.String()))
			return
		}

		job, err := w.repo.ClaimJob(ctx, w.workerID, w.lockTimeout)
		if err != nil {
			<-w.sem
			if !errors.Is(err, ErrNoJobToClaim) && ctx.Err() == nil {
				w.brokerError("claim job", err)
			}
			return
		}

		w.logger.Debug("claimed job",
			logger.WorkerID(w.workerID.String()),
			logger.JobID(job.ID),
			logger.Channel(job.Payload.Channel),
			logger.Attempts(job.Attempts))

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			w.process(ctx, job)
		}()
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	start := time.Now()
	err := w.execute(job)
	duration := time.Since(start)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.finalizeTimeout)
	defer cancel()

	if err != nil {
		w.handleFailure(ctx, job, err, duration)
		return
	}
	w.handleSuccess(ctx, job, duration)
}

// execute runs the handler with its own deadline so shutdown lets it finish.
func (w *Worker) execute(job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
			w.logger.Error("handler panicked",
				logger.WorkerID(w.workerID.String()),
				logger.JobID(job.ID),
				slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.lockTimeout)
	defer cancel()

	return w.handler.Handle(ctx, job.Payload)
}

// handleFailure retries with backoff while attempts remain, otherwise moves the
// job to the dead state.
func (w *Worker) handleFailure(ctx context.Context, job *Job, execErr error, duration time.Duration) {
	w.logger.Error("job failed",
		logger.WorkerID(w.workerID.String()),
		logger.JobID(job.ID),
		logger.Channel(job.Payload.Channel),
		logger.Attempts(job.Attempts),
		slog.Int("max_attempts", job.MaxAttempts),
		logger.Duration(duration),
		logger.Error(execErr))

	w.events.emit(Event{Type: EventFailed, JobID: job.ID, Mode: ModeDurable, Attempts: job.Attempts, Err: execErr})

	if job.Attempts >= job.MaxAttempts {
		if err := w.repo.MoveToDead(ctx, job.ID, execErr.Error()); err != nil {
			w.brokerError("move job to dead", err)
			return
		}
		w.logger.Warn("job moved to dead state",
			logger.WorkerID(w.workerID.String()),
			logger.JobID(job.ID),
			logger.Attempts(job.Attempts))
		w.events.emit(Event{Type: EventDead, JobID: job.ID, Mode: ModeDurable, Attempts: job.Attempts, Err: execErr})
		return
	}

	delay := Backoff(w.backoffBase, w.maxBackoff, job.Attempts-1)
	if err := w.repo.RetryJob(ctx, job.ID, execErr.Error(), time.Now().Add(delay)); err != nil {
		w.brokerError("retry job", err)
		return
	}
	w.logger.Debug("job scheduled for retry",
		logger.JobID(job.ID),
		slog.Duration("backoff", delay))
}

func (w *Worker) handleSuccess(ctx context.Context, job *Job, duration time.Duration) {
	if err := w.repo.CompleteJob(ctx, job.ID); err != nil {
		w.brokerError("complete job", err)
		return
	}

	w.logger.Info("job completed",
		logger.WorkerID(w.workerID.String()),
		logger.JobID(job.ID),
		logger.Channel(job.Payload.Channel),
		logger.Attempts(job.Attempts),
		logger.Duration(duration))
	w.events.emit(Event{Type: EventCompleted, JobID: job.ID, Mode: ModeDurable, Attempts: job.Attempts})
}

// reap recovers jobs whose worker died or hung past the lock deadline.
func (w *Worker) reap(ctx context.Context) {
	requeued, dead, err := w.repo.RecoverStalled(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.brokerError("recover stalled jobs", err)
		}
		return
	}

	for _, id := range requeued {
		w.logger.Warn("stalled job requeued", logger.JobID(id))
		w.events.emit(Event{Type: EventStalled, JobID: id, Mode: ModeDurable})
	}
	for _, id := range dead {
		w.logger.Warn("stalled job moved to dead state", logger.JobID(id))
		w.events.emit(Event{Type: EventStalled, JobID: id, Mode: ModeDurable})
		w.events.emit(Event{Type: EventDead, JobID: id, Mode: ModeDurable})
	}
}

func (w *Worker) brokerError(op string, err error) {
	if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotProcessing) {
		// lost the lock to the reaper; the job is owned elsewhere now
		w.logger.Warn("job state changed underneath worker",
			logger.WorkerID(w.workerID.String()),
			slog.String("op", op),
			logger.Error(err))
		return
	}

	err = errors.Join(ErrBroker, fmt.Errorf("%s: %w", op, err))
	w.logger.Error("queue storage failure",
		logger.WorkerID(w.workerID.String()),
		logger.Error(err))
	if w.onBrokerError != nil {
		w.onBrokerError(err)
	}
}

// ExtendLockForJob extends the lock of a long-running job.
func (w *Worker) ExtendLockForJob(ctx context.Context, jobID uuid.UUID, extension time.Duration) error {
	return w.repo.ExtendLock(ctx, jobID, extension)
}

// WorkerInfo returns information about the worker
func (w *Worker) WorkerInfo() (id string, hostname string, pid int) {
	hostname, _ = os.Hostname()
	return w.workerID.String(), hostname, os.Getpid()
}
