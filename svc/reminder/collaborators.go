package reminder

import (
	"context"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/queue"
	"github.com/dmitrymomot/remindkit/svc/directory"
)

// UserStore looks up reminder owners.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (directory.User, error)
}

// GoalStore looks up goals scoped to their owner.
type GoalStore interface {
	FindOwnedGoal(ctx context.Context, goalID, userID string) (directory.Goal, error)
}

// Enqueuer accepts delivery jobs. *queue.Service satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload queue.Payload, opts ...queue.EnqueueOption) (queue.Handle, error)
}

// Deliverer sends a payload synchronously, bypassing the queue.
type Deliverer interface {
	Deliver(ctx context.Context, payload queue.Payload) error
}

// BatchObserver receives per-batch outcome counts.
type BatchObserver interface {
	ObserveBatch(fired, skipped, failed int, d time.Duration)
}
