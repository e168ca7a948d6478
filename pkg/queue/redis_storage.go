package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix   = "remindkit:queue"
	defaultClaimWindow = 32
	maxTxRetries       = 5
)

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithKeyPrefix namespaces every key the storage writes.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClaimWindow sets how many of the oldest ready jobs are compared by
// priority on each claim.
func WithClaimWindow(n int) RedisOption {
	return func(s *RedisStorage) {
		if n > 0 {
			s.claimWindow = n
		}
	}
}

// RedisStorage implements Storage on Redis.
//
// Every job is a hash under <prefix>:job:<id>. Three sorted sets index the
// states: <prefix>:queued scored by ready time, <prefix>:processing scored by
// lock deadline and <prefix>:dead scored by failure time. State changes run
// in MULTI/EXEC guarded by WATCH so concurrent workers never claim the same job.
type RedisStorage struct {
	rdb         redis.UniversalClient
	prefix      string
	claimWindow int
}

// NewRedisStorage wraps a connected client.
func NewRedisStorage(rdb redis.UniversalClient, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{
		rdb:         rdb,
		prefix:      defaultKeyPrefix,
		claimWindow: defaultClaimWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) jobKey(id string) string { return s.prefix + ":job:" + id }
func (s *RedisStorage) queuedKey() string       { return s.prefix + ":queued" }
func (s *RedisStorage) processingKey() string   { return s.prefix + ":processing" }
func (s *RedisStorage) deadKey() string         { return s.prefix + ":dead" }

// CreateJob implements EnqueuerRepository
func (s *RedisStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if job.State == "" {
		job.State = StateQueued
	}

	fields, err := encodeJob(job)
	if err != nil {
		return err
	}

	id := job.ID.String()
	key := s.jobKey(id)

	for range maxTxRetries {
		err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists > 0 {
				return fmt.Errorf("job with ID %s already exists", id)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fields)
				pipe.ZAdd(ctx, s.queuedKey(), redis.Z{Score: msScore(job.ScheduledAt), Member: id})
				return nil
			})
			return err
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("store job %s: %w", id, err)
	}
	return nil
}

// ClaimJob implements WorkerRepository
func (s *RedisStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	for range maxTxRetries {
		var claimed *Job

		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			now := time.Now()
			ids, err := tx.ZRangeByScore(ctx, s.queuedKey(), &redis.ZRangeBy{
				Min:   "-inf",
				Max:   strconv.FormatInt(now.UnixMilli(), 10),
				Count: int64(s.claimWindow),
			}).Result()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return ErrNoJobToClaim
			}

			jobs, err := s.loadJobs(ctx, tx, ids)
			if err != nil {
				return err
			}

			// ids come ordered by ready time, so the first of the top priority wins
			var best *Job
			for _, job := range jobs {
				if job == nil || job.State != StateQueued {
					continue
				}
				if best == nil || job.Priority > best.Priority {
					best = job
				}
			}
			if best == nil {
				return ErrNoJobToClaim
			}

			lockUntil := now.Add(lockDuration)
			best.Attempts++
			best.State = StateProcessing
			best.LockedUntil = &lockUntil
			best.LockedBy = &workerID

			id := best.ID.String()
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, s.queuedKey(), id)
				pipe.ZAdd(ctx, s.processingKey(), redis.Z{Score: msScore(lockUntil), Member: id})
				pipe.HSet(ctx, s.jobKey(id),
					"state", string(StateProcessing),
					"attempts", best.Attempts,
					"locked_until", lockUntil.UnixMilli(),
					"locked_by", workerID.String(),
				)
				return nil
			})
			if err != nil {
				return err
			}

			claimed = best
			return nil
		}, s.queuedKey())

		switch {
		case err == nil:
			return claimed, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, err
		}
	}

	// lost every race; let the next poll try again
	return nil, ErrNoJobToClaim
}

// CompleteJob implements WorkerRepository
func (s *RedisStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	id := jobID.String()
	return s.update(ctx, id, func(tx *redis.Tx, job *Job) error {
		if job.State != StateProcessing {
			return fmt.Errorf("%w: %s", ErrJobNotProcessing, id)
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, s.processingKey(), id)
			pipe.Del(ctx, s.jobKey(id))
			return nil
		})
		return err
	})
}

// RetryJob implements WorkerRepository
func (s *RedisStorage) RetryJob(ctx context.Context, jobID uuid.UUID, errMsg string, runAt time.Time) error {
	id := jobID.String()
	return s.update(ctx, id, func(tx *redis.Tx, job *Job) error {
		if job.State != StateProcessing {
			return fmt.Errorf("%w: %s", ErrJobNotProcessing, id)
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.requeue(ctx, pipe, id, errMsg, runAt)
			return nil
		})
		return err
	})
}

// MoveToDead implements WorkerRepository
func (s *RedisStorage) MoveToDead(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	id := jobID.String()
	return s.update(ctx, id, func(tx *redis.Tx, _ *Job) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.bury(ctx, pipe, id, errMsg, time.Now())
			return nil
		})
		return err
	})
}

// ExtendLock implements WorkerRepository
func (s *RedisStorage) ExtendLock(ctx context.Context, jobID uuid.UUID, duration time.Duration) error {
	id := jobID.String()
	return s.update(ctx, id, func(tx *redis.Tx, job *Job) error {
		if job.State != StateProcessing {
			return fmt.Errorf("%w: %s", ErrJobNotProcessing, id)
		}
		lockUntil := time.Now().Add(duration)
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.jobKey(id), "locked_until", lockUntil.UnixMilli())
			pipe.ZAddXX(ctx, s.processingKey(), redis.Z{Score: msScore(lockUntil), Member: id})
			return nil
		})
		return err
	})
}

// RecoverStalled implements WorkerRepository
func (s *RedisStorage) RecoverStalled(ctx context.Context, now time.Time) (requeued, dead []uuid.UUID, err error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.processingKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, nil, err
	}

	for _, id := range ids {
		var buried bool
		err := s.update(ctx, id, func(tx *redis.Tx, job *Job) error {
			if job.State != StateProcessing || job.LockedUntil == nil || job.LockedUntil.After(now) {
				return errSkip
			}
			buried = job.Attempts >= job.MaxAttempts
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if buried {
					s.bury(ctx, pipe, id, "stalled: lock expired", now)
				} else {
					s.requeue(ctx, pipe, id, "stalled: lock expired", now)
				}
				return nil
			})
			return err
		})

		switch {
		case err == nil:
			jobID, _ := uuid.Parse(id)
			if buried {
				dead = append(dead, jobID)
			} else {
				requeued = append(requeued, jobID)
			}
		case errors.Is(err, errSkip), errors.Is(err, ErrJobNotFound), errors.Is(err, redis.TxFailedErr):
			// finished or touched by its worker meanwhile
		default:
			return requeued, dead, err
		}
	}

	return requeued, dead, nil
}

// GetJob implements Inspector
func (s *RedisStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	fields, err := s.rdb.HGetAll(ctx, s.jobKey(jobID.String())).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return decodeJob(fields)
}

// ListDead implements Inspector. Most recently failed first.
func (s *RedisStorage) ListDead(ctx context.Context, limit int) ([]*Job, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.rdb.ZRevRange(ctx, s.deadKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	jobs, err := s.loadJobs(ctx, s.rdb, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			out = append(out, job)
		}
	}
	return out, nil
}

// CountDead implements Inspector.
func (s *RedisStorage) CountDead(ctx context.Context) (int, error) {
	n, err := s.rdb.ZCard(ctx, s.deadKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var errSkip = errors.New("skip")

// update runs fn under WATCH on the job hash, retrying on conflicts.
func (s *RedisStorage) update(ctx context.Context, id string, fn func(tx *redis.Tx, job *Job) error) error {
	key := s.jobKey(id)

	var err error
	for range maxTxRetries {
		err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return fmt.Errorf("%w: %s", ErrJobNotFound, id)
			}
			job, err := decodeJob(fields)
			if err != nil {
				return err
			}
			return fn(tx, job)
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *RedisStorage) requeue(ctx context.Context, pipe redis.Pipeliner, id, errMsg string, runAt time.Time) {
	pipe.ZRem(ctx, s.processingKey(), id)
	pipe.ZAdd(ctx, s.queuedKey(), redis.Z{Score: msScore(runAt), Member: id})
	pipe.HSet(ctx, s.jobKey(id),
		"state", string(StateQueued),
		"last_error", errMsg,
		"scheduled_at", runAt.UnixMilli(),
	)
	pipe.HDel(ctx, s.jobKey(id), "locked_until", "locked_by")
}

func (s *RedisStorage) bury(ctx context.Context, pipe redis.Pipeliner, id, errMsg string, at time.Time) {
	pipe.ZRem(ctx, s.queuedKey(), id)
	pipe.ZRem(ctx, s.processingKey(), id)
	pipe.ZAdd(ctx, s.deadKey(), redis.Z{Score: msScore(at), Member: id})
	pipe.HSet(ctx, s.jobKey(id),
		"state", string(StateDead),
		"last_error", errMsg,
		"processed_at", at.UnixMilli(),
	)
	pipe.HDel(ctx, s.jobKey(id), "locked_until", "locked_by")
}

// pipeliner is satisfied by both clients and *redis.Tx.
type pipeliner interface {
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

func (s *RedisStorage) loadJobs(ctx context.Context, c pipeliner, ids []string) ([]*Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.jobKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		job, err := decodeJob(fields)
		if err != nil {
			return nil, err
		}
		jobs[i] = job
	}
	return jobs, nil
}

func msScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func encodeJob(job *Job) (map[string]any, error) {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload of job %s: %w", job.ID, err)
	}

	fields := map[string]any{
		"id":           job.ID.String(),
		"payload":      payload,
		"priority":     int(job.Priority),
		"attempts":     job.Attempts,
		"max_attempts": job.MaxAttempts,
		"state":        string(job.State),
		"scheduled_at": job.ScheduledAt.UnixMilli(),
		"last_error":   job.LastError,
		"created_at":   job.CreatedAt.UnixMilli(),
	}
	if job.LockedUntil != nil {
		fields["locked_until"] = job.LockedUntil.UnixMilli()
	}
	if job.LockedBy != nil {
		fields["locked_by"] = job.LockedBy.String()
	}
	if job.ProcessedAt != nil {
		fields["processed_at"] = job.ProcessedAt.UnixMilli()
	}
	return fields, nil
}

func decodeJob(fields map[string]string) (*Job, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("decode job id: %w", err)
	}

	job := &Job{
		ID:        id,
		State:     State(fields["state"]),
		LastError: fields["last_error"],
	}

	if raw := fields["payload"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of job %s: %w", id, err)
		}
	}

	ints := map[string]*int{
		"attempts":     &job.Attempts,
		"max_attempts": &job.MaxAttempts,
	}
	for name, dst := range ints {
		if raw := fields[name]; raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s of job %s: %w", name, id, err)
			}
			*dst = n
		}
	}

	if raw := fields["priority"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode priority of job %s: %w", id, err)
		}
		job.Priority = Priority(n)
	}

	if job.ScheduledAt, err = msTime(fields["scheduled_at"]); err != nil {
		return nil, err
	}
	if job.CreatedAt, err = msTime(fields["created_at"]); err != nil {
		return nil, err
	}
	if raw := fields["locked_until"]; raw != "" {
		t, err := msTime(raw)
		if err != nil {
			return nil, err
		}
		job.LockedUntil = &t
	}
	if raw := fields["processed_at"]; raw != "" {
		t, err := msTime(raw)
		if err != nil {
			return nil, err
		}
		job.ProcessedAt = &t
	}
	if raw := fields["locked_by"]; raw != "" {
		by, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode locked_by of job %s: %w", id, err)
		}
		job.LockedBy = &by
	}

	return job, nil
}

func msTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}
