package reminder_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/queue"
	"github.com/dmitrymomot/remindkit/svc/directory"
	"github.com/dmitrymomot/remindkit/svc/reminder"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo  *reminder.MemoryStorage
	dir   *directory.Memory
	svc   *reminder.Service
	user  directory.User
	goal  directory.Goal
	other directory.User
}

func newFixture(opts ...reminder.ServiceOption) *fixture {
	f := &fixture{
		repo: reminder.NewMemoryStorage(),
		dir:  directory.NewMemory(),
		user: directory.User{
			ID:    uuid.NewString(),
			Email: "owner@example.com",
			Phone: "+15550001111",
		},
		other: directory.User{
			ID:    uuid.NewString(),
			Email: "other@example.com",
		},
	}
	f.goal = directory.Goal{
		ID:      uuid.NewString(),
		UserID:  f.user.ID,
		Title:   "Run a marathon",
		DueDate: ptr(baseTime.Add(10 * 24 * time.Hour)),
	}
	f.dir.PutUser(f.user)
	f.dir.PutUser(f.other)
	f.dir.PutGoal(f.goal)

	opts = append([]reminder.ServiceOption{
		reminder.WithServiceClock(clock(baseTime)),
		reminder.WithServiceLogger(logger.Discard()),
	}, opts...)
	f.svc = reminder.NewService(f.repo, f.dir, f.dir, opts...)
	return f
}

// seed stores a reminder directly, bypassing creation rules.
func (f *fixture) seed(mut func(*reminder.Reminder)) reminder.Reminder {
	r := reminder.Reminder{
		ID:            uuid.NewString(),
		UserID:        f.user.ID,
		Message:       "stretch",
		RemindAt:      baseTime.Add(-time.Minute),
		Type:          reminder.TypeEmail,
		Recurrence:    "none",
		IsActive:      true,
		EmailSnapshot: f.user.Email,
		Source:        reminder.SourceManual,
		CreatedAt:     baseTime.Add(-time.Hour),
		UpdatedAt:     baseTime.Add(-time.Hour),
	}
	if mut != nil {
		mut(&r)
	}
	if err := f.repo.Create(context.Background(), r); err != nil {
		panic(err)
	}
	return r
}

// recordingQueue captures enqueued payloads and can fail selected recipients.
type recordingQueue struct {
	mu       sync.Mutex
	payloads []queue.Payload
	fail     func(queue.Payload) error
}

func (q *recordingQueue) Enqueue(_ context.Context, p queue.Payload, _ ...queue.EnqueueOption) (queue.Handle, error) {
	if q.fail != nil {
		if err := q.fail(p); err != nil {
			return queue.Handle{}, err
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, p)
	return queue.Handle{JobID: uuid.New(), Mode: queue.ModeDurable}, nil
}

func (q *recordingQueue) sent() []queue.Payload {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Payload(nil), q.payloads...)
}

type deliverFunc func(ctx context.Context, p queue.Payload) error

func (f deliverFunc) Deliver(ctx context.Context, p queue.Payload) error { return f(ctx, p) }

type batchStats struct {
	mu                     sync.Mutex
	fired, skipped, failed int
	calls                  int
}

func (b *batchStats) ObserveBatch(fired, skipped, failed int, _ time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fired, b.skipped, b.failed = fired, skipped, failed
	b.calls++
}

var errTransport = errors.New("smtp: connection refused")
