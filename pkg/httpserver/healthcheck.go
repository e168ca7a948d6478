package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/logger"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler runs every check with the given per-request timeout and
// responds 200 with status "ok" when all pass, 503 with status "degraded"
// otherwise. With no checks it acts as a liveness probe.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]CheckFunc) http.HandlerFunc {
	names := slices.Sorted(maps.Keys(checks))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		code := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Error(err))
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
