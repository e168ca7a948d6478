package correlation

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// Header carries the ID on ops HTTP requests and responses.
	Header = "X-Request-ID"
	// LogKey is the attribute name used in log records.
	LogKey = "correlation_id"

	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type contextKey struct{}

// New returns a fresh random ID.
func New() string {
	return uuid.NewString()
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the ID stored in ctx or an empty string.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Valid reports whether a caller-supplied ID may be reused as is.
func Valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}

// Middleware attaches an ID to every request and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Valid(id) {
			id = New()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// LoggerExtractor adds the ID to log records whose context carries one.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String(LogKey, id), true
		}
		return slog.Attr{}, false
	}
}
