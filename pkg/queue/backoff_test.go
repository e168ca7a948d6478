package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/remindkit/pkg/queue"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    time.Duration
		max     time.Duration
		retries int
		want    time.Duration
	}{
		{"first retry waits base", 2 * time.Second, time.Minute, 0, 2 * time.Second},
		{"second retry doubles", 2 * time.Second, time.Minute, 1, 4 * time.Second},
		{"third retry doubles again", 2 * time.Second, time.Minute, 2, 8 * time.Second},
		{"capped at max", 2 * time.Second, 10 * time.Second, 5, 10 * time.Second},
		{"no cap", time.Second, 0, 10, 1024 * time.Second},
		{"negative retries treated as zero", time.Second, 0, -3, time.Second},
		{"zero base disables backoff", 0, time.Minute, 4, 0},
		{"huge retry count stays capped", time.Second, time.Hour, 200, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, queue.Backoff(tt.base, tt.max, tt.retries))
		})
	}
}
