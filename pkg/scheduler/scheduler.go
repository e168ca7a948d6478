package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/correlation"
	"github.com/dmitrymomot/remindkit/pkg/logger"
)

// JobFunc is the work a periodic job performs.
type JobFunc func(ctx context.Context) error

type job struct {
	name       string
	schedule   Schedule
	fn         JobFunc
	runOnStart bool
	next       time.Time
}

// Scheduler manages periodic jobs.
type Scheduler struct {
	mu         sync.RWMutex
	jobs       []*job
	names      map[string]struct{}
	logger     *slog.Logger
	runTimeout time.Duration
}

// New creates a scheduler with no jobs.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		names:  make(map[string]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("scheduler"))
	return s
}

// AddJob registers a periodic job. Jobs run in registration order when due at
// the same moment.
func (s *Scheduler) AddJob(name string, schedule Schedule, fn JobFunc, opts ...JobOption) error {
	if name == "" || schedule == nil || fn == nil {
		return ErrInvalidJob
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	for _, opt := range opts {
		opt(j)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.names[name]; exists {
		return ErrJobAlreadyRegistered
	}
	s.names[name] = struct{}{}
	s.jobs = append(s.jobs, j)

	s.logger.Info("registered periodic job",
		slog.String("job", name),
		slog.String("schedule", schedule.String()))

	return nil
}

// ListJobs returns the names of all registered jobs.
func (s *Scheduler) ListJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start runs jobs until ctx is done and then returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.RLock()
	jobs := make([]*job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	if len(jobs) == 0 {
		return ErrNoJobs
	}

	now := time.Now()
	for _, j := range jobs {
		if j.runOnStart {
			j.next = now
		} else {
			j.next = j.schedule.Next(now)
		}
	}

	for {
		earliest := jobs[0].next
		for _, j := range jobs[1:] {
			if j.next.Before(earliest) {
				earliest = j.next
			}
		}

		timer := time.NewTimer(time.Until(earliest))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler shutting down")
			return ctx.Err()
		case <-timer.C:
		}

		for _, j := range jobs {
			if ctx.Err() != nil {
				break
			}
			if j.next.After(time.Now()) {
				continue
			}
			s.run(ctx, j)
			j.next = j.schedule.Next(time.Now())
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j *job) {
	start := time.Now()
	ctx = correlation.WithID(ctx, correlation.New())

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	err := safeCall(ctx, j.fn)
	duration := time.Since(start)

	if err != nil {
		s.logger.ErrorContext(ctx, "periodic job failed",
			slog.String("job", j.name),
			logger.Duration(duration),
			logger.Error(err))
		return
	}

	s.logger.DebugContext(ctx, "periodic job finished",
		slog.String("job", j.name),
		logger.Duration(duration))
}

func safeCall(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in periodic job: %v", r)
		}
	}()
	return fn(ctx)
}
