package queue

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in process memory for tests and local runs.
// Lock expiry is handled by the worker's reaper through RecoverStalled.
type MemoryStorage struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	byState map[State][]uuid.UUID
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs:    make(map[uuid.UUID]*Job),
		byState: make(map[State][]uuid.UUID),
	}
}

// CreateJob implements EnqueuerRepository
func (ms *MemoryStorage) CreateJob(_ context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	jobCopy := *job
	if jobCopy.State == "" {
		jobCopy.State = StateQueued
	}
	ms.jobs[job.ID] = &jobCopy
	ms.byState[jobCopy.State] = append(ms.byState[jobCopy.State], job.ID)

	return nil
}

// ClaimJob implements WorkerRepository. Higher priority wins; earlier
// ScheduledAt breaks ties.
func (ms *MemoryStorage) ClaimJob(_ context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var best *Job

	for _, id := range ms.byState[StateQueued] {
		job := ms.jobs[id]
		if job.ScheduledAt.After(now) {
			continue
		}
		if best == nil ||
			job.Priority > best.Priority ||
			(job.Priority == best.Priority && job.ScheduledAt.Before(best.ScheduledAt)) {
			best = job
		}
	}

	if best == nil {
		return nil, ErrNoJobToClaim
	}

	lockUntil := now.Add(lockDuration)
	best.Attempts++
	best.LockedUntil = &lockUntil
	best.LockedBy = &workerID
	ms.moveState(best, StateProcessing)

	jobCopy := *best
	return &jobCopy, nil
}

// CompleteJob implements WorkerRepository
func (ms *MemoryStorage) CompleteJob(_ context.Context, jobID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.processing(jobID)
	if err != nil {
		return err
	}

	ms.removeFromStateIndex(jobID, job.State)
	delete(ms.jobs, jobID)
	return nil
}

// RetryJob implements WorkerRepository
func (ms *MemoryStorage) RetryJob(_ context.Context, jobID uuid.UUID, errMsg string, runAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.processing(jobID)
	if err != nil {
		return err
	}

	job.LastError = errMsg
	job.ScheduledAt = runAt
	job.LockedUntil = nil
	job.LockedBy = nil
	ms.moveState(job, StateQueued)
	return nil
}

// MoveToDead implements WorkerRepository
func (ms *MemoryStorage) MoveToDead(_ context.Context, jobID uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	ms.markDead(job, errMsg, time.Now())
	return nil
}

// ExtendLock implements WorkerRepository
func (ms *MemoryStorage) ExtendLock(_ context.Context, jobID uuid.UUID, duration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.processing(jobID)
	if err != nil {
		return err
	}

	lockUntil := time.Now().Add(duration)
	job.LockedUntil = &lockUntil
	return nil
}

// RecoverStalled implements WorkerRepository
func (ms *MemoryStorage) RecoverStalled(_ context.Context, now time.Time) (requeued, dead []uuid.UUID, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, id := range slices.Clone(ms.byState[StateProcessing]) {
		job := ms.jobs[id]
		if job.LockedUntil == nil || job.LockedUntil.After(now) {
			continue
		}

		if job.Attempts >= job.MaxAttempts {
			ms.markDead(job, "stalled: lock expired", now)
			dead = append(dead, id)
			continue
		}

		job.LastError = "stalled: lock expired"
		job.ScheduledAt = now
		job.LockedUntil = nil
		job.LockedBy = nil
		ms.moveState(job, StateQueued)
		requeued = append(requeued, id)
	}

	return requeued, dead, nil
}

// GetJob implements Inspector
func (ms *MemoryStorage) GetJob(_ context.Context, jobID uuid.UUID) (*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	jobCopy := *job
	return &jobCopy, nil
}

// ListDead implements Inspector. Most recently failed first.
func (ms *MemoryStorage) ListDead(_ context.Context, limit int) ([]*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*Job, 0, len(ms.byState[StateDead]))
	for _, id := range ms.byState[StateDead] {
		jobCopy := *ms.jobs[id]
		out = append(out, &jobCopy)
	}

	slices.SortFunc(out, func(a, b *Job) int {
		return cmp.Compare(b.ProcessedAt.UnixNano(), a.ProcessedAt.UnixNano())
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountDead implements Inspector.
func (ms *MemoryStorage) CountDead(_ context.Context) (int, error) {
	return ms.Len(StateDead), nil
}

// Len returns the number of stored jobs in the given state.
func (ms *MemoryStorage) Len(state State) int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.byState[state])
}

// Helper methods

func (ms *MemoryStorage) processing(jobID uuid.UUID) (*Job, error) {
	job, exists := ms.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.State != StateProcessing {
		return nil, fmt.Errorf("%w: %s", ErrJobNotProcessing, jobID)
	}
	return job, nil
}

func (ms *MemoryStorage) markDead(job *Job, errMsg string, at time.Time) {
	job.LastError = errMsg
	job.LockedUntil = nil
	job.LockedBy = nil
	job.ProcessedAt = &at
	ms.moveState(job, StateDead)
}

func (ms *MemoryStorage) moveState(job *Job, to State) {
	ms.removeFromStateIndex(job.ID, job.State)
	job.State = to
	ms.byState[to] = append(ms.byState[to], job.ID)
}

func (ms *MemoryStorage) removeFromStateIndex(jobID uuid.UUID, state State) {
	ms.byState[state] = slices.DeleteFunc(ms.byState[state], func(id uuid.UUID) bool {
		return id == jobID
	})
}
