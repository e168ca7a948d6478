package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/remindkit/pkg/correlation"
	"github.com/dmitrymomot/remindkit/pkg/httpserver"
	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/queue"
)

const (
	defaultDeadLimit = 50
	maxDeadLimit     = 500
)

// deadLetters is the part of the queue the ops endpoints read.
type deadLetters interface {
	Mode() queue.Mode
	ListDead(ctx context.Context, limit int) ([]*queue.Job, error)
}

// deadCounter sizes the dead-letter backlog for the gauge.
type deadCounter interface {
	CountDead(ctx context.Context) (int, error)
}

type deadResponse struct {
	Mode queue.Mode   `json:"mode"`
	Jobs []*queue.Job `json:"jobs"`
}

func newOpsRouter(log *slog.Logger, q deadLetters, checkTimeout time.Duration, checks map[string]httpserver.CheckFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(correlation.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/livez", httpserver.HealthHandler(log, checkTimeout, nil))
	r.Get("/healthz", httpserver.HealthHandler(log, checkTimeout, checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/queue/dead", deadHandler(log, q))

	return r
}

func deadHandler(log *slog.Logger, q deadLetters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultDeadLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxDeadLimit)
		}

		resp := deadResponse{Mode: q.Mode(), Jobs: []*queue.Job{}}
		jobs, err := q.ListDead(r.Context(), limit)
		switch {
		case errors.Is(err, queue.ErrNotConfigured):
		case err != nil:
			log.ErrorContext(r.Context(), "failed to list dead jobs", logger.Error(err))
			http.Error(w, "failed to list dead jobs", http.StatusBadGateway)
			return
		default:
			resp.Jobs = append(resp.Jobs, jobs...)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
