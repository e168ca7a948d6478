package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/pkg/httpserver"
	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/metrics"
	"github.com/dmitrymomot/remindkit/pkg/queue"
)

type fakeDead struct {
	mode      queue.Mode
	jobs      []*queue.Job
	err       error
	lastLimit int
}

func (f *fakeDead) Mode() queue.Mode { return f.mode }

func (f *fakeDead) ListDead(_ context.Context, limit int) ([]*queue.Job, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs, nil
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestOpsRouter_DeadLetters(t *testing.T) {
	t.Parallel()

	t.Run("lists dead jobs", func(t *testing.T) {
		t.Parallel()

		job := &queue.Job{
			ID:        uuid.New(),
			Payload:   queue.Payload{Channel: "email", To: "a@example.com", Subject: "Reminder"},
			State:     queue.StateDead,
			LastError: "smtp down",
		}
		q := &fakeDead{mode: queue.ModeDurable, jobs: []*queue.Job{job}}
		router := newOpsRouter(logger.Discard(), q, time.Second, nil)

		rec := serve(t, router, "/queue/dead?limit=10")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, q.lastLimit)

		var body deadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, queue.ModeDurable, body.Mode)
		require.Len(t, body.Jobs, 1)
		assert.Equal(t, job.ID, body.Jobs[0].ID)
		assert.Equal(t, "smtp down", body.Jobs[0].LastError)
	})

	t.Run("limit is defaulted and capped", func(t *testing.T) {
		t.Parallel()

		q := &fakeDead{mode: queue.ModeDurable}
		router := newOpsRouter(logger.Discard(), q, time.Second, nil)

		serve(t, router, "/queue/dead")
		assert.Equal(t, defaultDeadLimit, q.lastLimit)

		serve(t, router, "/queue/dead?limit=100000")
		assert.Equal(t, maxDeadLimit, q.lastLimit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		router := newOpsRouter(logger.Discard(), &fakeDead{}, time.Second, nil)
		assert.Equal(t, http.StatusBadRequest, serve(t, router, "/queue/dead?limit=-1").Code)
		assert.Equal(t, http.StatusBadRequest, serve(t, router, "/queue/dead?limit=abc").Code)
	})

	t.Run("immediate mode has no dead letters", func(t *testing.T) {
		t.Parallel()

		q := &fakeDead{mode: queue.ModeImmediate, err: queue.ErrNotConfigured}
		rec := serve(t, newOpsRouter(logger.Discard(), q, time.Second, nil), "/queue/dead")
		require.Equal(t, http.StatusOK, rec.Code)

		var body deadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, queue.ModeImmediate, body.Mode)
		assert.Empty(t, body.Jobs)
	})

	t.Run("broker failure", func(t *testing.T) {
		t.Parallel()

		q := &fakeDead{mode: queue.ModeDurable, err: errors.Join(queue.ErrBroker, errors.New("i/o timeout"))}
		rec := serve(t, newOpsRouter(logger.Discard(), q, time.Second, nil), "/queue/dead")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestOpsRouter_Health(t *testing.T) {
	t.Parallel()

	checks := map[string]httpserver.CheckFunc{
		"mongo": func(context.Context) error { return errors.New("no reachable servers") },
	}
	router := newOpsRouter(logger.Discard(), &fakeDead{}, time.Second, checks)

	assert.Equal(t, http.StatusOK, serve(t, router, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, router, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, "/metrics").Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type deadCount struct {
	n   int
	err error
}

func (c deadCount) CountDead(context.Context) (int, error) { return c.n, c.err }

func TestAuditDeadLetters(t *testing.T) {
	t.Parallel()

	t.Run("gauge tracks the full backlog", func(t *testing.T) {
		t.Parallel()

		rec := metrics.NewRecorder(prometheus.NewRegistry())
		require.NoError(t, auditDeadLetters(deadCount{n: 4321}, rec)(context.Background()))
		assert.InDelta(t, 4321, testutil.ToFloat64(rec.QueueDeadJobs), 0)
	})

	t.Run("immediate mode resets the gauge", func(t *testing.T) {
		t.Parallel()

		rec := metrics.NewRecorder(prometheus.NewRegistry())
		rec.SetDeadJobs(9)
		require.NoError(t, auditDeadLetters(deadCount{err: queue.ErrNotConfigured}, rec)(context.Background()))
		assert.Zero(t, testutil.ToFloat64(rec.QueueDeadJobs))
	})

	t.Run("broker failure keeps the last value", func(t *testing.T) {
		t.Parallel()

		rec := metrics.NewRecorder(prometheus.NewRegistry())
		rec.SetDeadJobs(9)
		err := auditDeadLetters(deadCount{err: errors.New("connection refused")}, rec)(context.Background())
		require.Error(t, err)
		assert.InDelta(t, 9, testutil.ToFloat64(rec.QueueDeadJobs), 0)
	})
}
