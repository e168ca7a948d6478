package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/pkg/queue"
)

func newRedisStorage(t *testing.T) (*queue.RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return queue.NewRedisStorage(client, queue.WithKeyPrefix("test:queue")), mr
}

func TestRedisStorage(t *testing.T) {
	t.Parallel()

	runStorageContract(t, func(t *testing.T) queue.Storage {
		s, _ := newRedisStorage(t)
		return s
	})
}

func TestRedisStorage_Layout(t *testing.T) {
	t.Parallel()

	s, mr := newRedisStorage(t)
	ctx := context.Background()

	job := newJob(queue.PriorityHigh, time.Now().Add(-time.Second), 3)
	require.NoError(t, s.CreateJob(ctx, job))

	key := "test:queue:job:" + job.ID.String()
	assert.True(t, mr.Exists(key))
	assert.Equal(t, "queued", mr.HGet(key, "state"))
	assert.Equal(t, "75", mr.HGet(key, "priority"))

	queued, err := mr.ZMembers("test:queue:queued")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID.String()}, queued)

	_, err = s.ClaimJob(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)

	processing, err := mr.ZMembers("test:queue:processing")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID.String()}, processing)
	assert.False(t, mr.Exists("test:queue:queued"))

	require.NoError(t, s.CompleteJob(ctx, job.ID))
	assert.False(t, mr.Exists(key))
}

func TestRedisStorage_ConcurrentCreateSameID(t *testing.T) {
	t.Parallel()

	s, mr := newRedisStorage(t)
	ctx := context.Background()
	job := newJob(queue.PriorityDefault, time.Now().Add(-time.Second), 3)

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobCopy := *job
			if s.CreateJob(ctx, &jobCopy) == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	key := "test:queue:job:" + job.ID.String()
	assert.Equal(t, "queued", mr.HGet(key, "state"))
	queued, err := mr.ZMembers("test:queue:queued")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID.String()}, queued)

	stored, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.MaxAttempts, stored.MaxAttempts)
}

func TestRedisStorage_ConcurrentClaimsAreExclusive(t *testing.T) {
	t.Parallel()

	s, _ := newRedisStorage(t)
	ctx := context.Background()

	const jobs = 20
	for range jobs {
		require.NoError(t, s.CreateJob(ctx, newJob(queue.PriorityDefault, time.Now().Add(-time.Second), 3)))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := uuid.New()
			for range 20 {
				job, err := s.ClaimJob(ctx, worker, time.Minute)
				if err != nil {
					continue
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// contention may leave a few jobs unclaimed in this round; drain them
	for {
		job, err := s.ClaimJob(ctx, uuid.New(), time.Minute)
		if err != nil {
			break
		}
		claimed[job.ID]++
	}

	assert.Len(t, claimed, jobs)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "job %s claimed more than once", id)
	}
}

func TestRedisStorage_BrokerDown(t *testing.T) {
	t.Parallel()

	s, mr := newRedisStorage(t)
	mr.Close()

	err := s.CreateJob(context.Background(), newJob(queue.PriorityDefault, time.Now(), 3))
	assert.Error(t, err)

	_, err = s.ClaimJob(context.Background(), uuid.New(), time.Minute)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, queue.ErrNoJobToClaim)
}
