package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/queue"
)

// MockWorkerRepository is a mock implementation of WorkerRepository
type MockWorkerRepository struct {
	mock.Mock
}

func (m *MockWorkerRepository) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*queue.Job, error) {
	args := m.Called(ctx, workerID, lockDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Job), args.Error(1)
}

func (m *MockWorkerRepository) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockWorkerRepository) RetryJob(ctx context.Context, jobID uuid.UUID, errMsg string, runAt time.Time) error {
	return m.Called(ctx, jobID, errMsg, runAt).Error(0)
}

func (m *MockWorkerRepository) MoveToDead(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	return m.Called(ctx, jobID, errMsg).Error(0)
}

func (m *MockWorkerRepository) ExtendLock(ctx context.Context, jobID uuid.UUID, duration time.Duration) error {
	return m.Called(ctx, jobID, duration).Error(0)
}

func (m *MockWorkerRepository) RecoverStalled(ctx context.Context, now time.Time) ([]uuid.UUID, []uuid.UUID, error) {
	args := m.Called(ctx, now)
	requeued, _ := args.Get(0).([]uuid.UUID)
	dead, _ := args.Get(1).([]uuid.UUID)
	return requeued, dead, args.Error(2)
}

// eventLog collects events emitted by queue components.
type eventLog struct {
	mu     sync.Mutex
	events []queue.Event
}

func (l *eventLog) sink(e queue.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(typ queue.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func fastWorker(t *testing.T, repo queue.WorkerRepository, h queue.Handler, opts ...queue.WorkerOption) *queue.Worker {
	t.Helper()

	base := []queue.WorkerOption{
		queue.WithPollInterval(5 * time.Millisecond),
		queue.WithReapInterval(10 * time.Millisecond),
		queue.WithBackoff(time.Millisecond, 5*time.Millisecond),
		queue.WithWorkerLogger(logger.Discard()),
	}
	w, err := queue.NewWorker(repo, h, append(base, opts...)...)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = w.Stop(ctx)
	})
	return w
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error { return nil })

	_, err := queue.NewWorker(nil, handler)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)

	_, err = queue.NewWorker(queue.NewMemoryStorage(), nil)
	assert.ErrorIs(t, err, queue.ErrHandlerNil)

	w, err := queue.NewWorker(queue.NewMemoryStorage(), handler, queue.WithConcurrency(3))
	require.NoError(t, err)

	id, _, pid := w.WorkerInfo()
	assert.NotEmpty(t, id)
	assert.Positive(t, pid)
}

func TestWorker_StartStop(t *testing.T) {
	t.Parallel()

	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error { return nil })
	w, err := queue.NewWorker(queue.NewMemoryStorage(), handler, queue.WithWorkerLogger(logger.Discard()))
	require.NoError(t, err)

	assert.ErrorIs(t, w.Stop(context.Background()), queue.ErrWorkerNotRunning)
	require.NoError(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.Start(context.Background()), queue.ErrWorkerRunning)
	require.NoError(t, w.Stop(context.Background()))
}

func TestWorker_CompletesJobs(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	events := &eventLog{}

	var delivered atomic.Int32
	handler := queue.HandlerFunc(func(_ context.Context, p queue.Payload) error {
		assert.Equal(t, testPayload, p)
		delivered.Add(1)
		return nil
	})
	fastWorker(t, storage, handler, queue.WithConcurrency(2), queue.WithEventSink(events.sink))

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	for range 5 {
		_, err := enq.Enqueue(context.Background(), testPayload)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return events.count(queue.EventCompleted) == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 5, delivered.Load())
	assert.Zero(t, storage.Len(queue.StateQueued))
	assert.Zero(t, storage.Len(queue.StateProcessing))
	assert.Equal(t, 1, events.count(queue.EventReady))
}

func TestWorker_RetriesThenDeadLetters(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	events := &eventLog{}

	var calls atomic.Int32
	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error {
		calls.Add(1)
		return errors.New("mailbox unavailable")
	})
	fastWorker(t, storage, handler, queue.WithEventSink(events.sink))

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	h, err := enq.Enqueue(context.Background(), testPayload, queue.WithMaxAttempts(3))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return events.count(queue.EventDead) == 1 }, 2*time.Second, 5*time.Millisecond)

	job, err := storage.GetJob(context.Background(), h.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateDead, job.State)
	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, "mailbox unavailable", job.LastError)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 3, events.count(queue.EventFailed))
	assert.Zero(t, events.count(queue.EventCompleted))

	dead, err := storage.ListDead(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, h.JobID, dead[0].ID)
}

func TestWorker_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	events := &eventLog{}

	var calls atomic.Int32
	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error {
		if calls.Add(1) == 1 {
			panic("template exploded")
		}
		return nil
	})
	fastWorker(t, storage, handler, queue.WithEventSink(events.sink))

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	_, err = enq.Enqueue(context.Background(), testPayload)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return events.count(queue.EventCompleted) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, events.count(queue.EventFailed))
	assert.EqualValues(t, 2, calls.Load())
}

func TestWorker_ReapsStalledJobs(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	events := &eventLog{}

	// a claim by a worker that died right after locking the job
	job := newJob(queue.PriorityDefault, time.Now().Add(-time.Second), 3)
	require.NoError(t, storage.CreateJob(context.Background(), job))
	_, err := storage.ClaimJob(context.Background(), uuid.New(), time.Millisecond)
	require.NoError(t, err)

	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error { return nil })
	fastWorker(t, storage, handler, queue.WithEventSink(events.sink))

	require.Eventually(t, func() bool { return events.count(queue.EventCompleted) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, events.count(queue.EventStalled))
}

func TestWorker_StopWaitsForInFlightJobs(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	})

	w, err := queue.NewWorker(storage, handler,
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithWorkerLogger(logger.Discard()),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	h, err := enq.Enqueue(context.Background(), testPayload)
	require.NoError(t, err)

	<-started

	t.Run("deadline exceeded while job runs", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, w.Stop(ctx), context.DeadlineExceeded)
	})

	close(release)
	require.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)

	// the job still completes against storage after the worker context is gone
	require.Eventually(t, func() bool {
		_, err := storage.GetJob(context.Background(), h.JobID)
		return errors.Is(err, queue.ErrJobNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestWorker_BrokerErrorHook(t *testing.T) {
	t.Parallel()

	repo := new(MockWorkerRepository)
	brokerDown := errors.New("dial tcp: connection refused")
	repo.On("ClaimJob", mock.Anything, mock.Anything, mock.Anything).Return(nil, brokerDown)
	repo.On("RecoverStalled", mock.Anything, mock.Anything).Return(nil, nil, nil)

	var hooked atomic.Int32
	var lastErr atomic.Value
	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error { return nil })
	fastWorker(t, repo, handler, queue.WithBrokerErrorHook(func(err error) {
		lastErr.Store(err)
		hooked.Add(1)
	}))

	require.Eventually(t, func() bool { return hooked.Load() > 0 }, time.Second, 5*time.Millisecond)
	err, _ := lastErr.Load().(error)
	assert.ErrorIs(t, err, queue.ErrBroker)
	assert.ErrorIs(t, err, brokerDown)
}

func TestWorker_LostLockIsNotABrokerError(t *testing.T) {
	t.Parallel()

	job := newJob(queue.PriorityDefault, time.Now(), 3)
	job.Attempts = 1
	job.State = queue.StateProcessing

	repo := new(MockWorkerRepository)
	repo.On("ClaimJob", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("ClaimJob", mock.Anything, mock.Anything, mock.Anything).Return(nil, queue.ErrNoJobToClaim)
	var completed atomic.Bool
	repo.On("CompleteJob", mock.Anything, job.ID).
		Run(func(mock.Arguments) { completed.Store(true) }).
		Return(queue.ErrJobNotFound)
	repo.On("RecoverStalled", mock.Anything, mock.Anything).Return(nil, nil, nil)

	var hooked atomic.Int32
	handler := queue.HandlerFunc(func(context.Context, queue.Payload) error { return nil })
	fastWorker(t, repo, handler, queue.WithBrokerErrorHook(func(error) { hooked.Add(1) }))

	require.Eventually(t, completed.Load, time.Second, 5*time.Millisecond)
	assert.Zero(t, hooked.Load())
}
