package reminder

import (
	"context"
	"time"
)

// Repository persists reminders.
type Repository interface {
	// Create inserts r. It returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, r Reminder) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Reminder, error)
	// Update replaces an unsent reminder. It returns ErrNotFound for unknown
	// ids and ErrConflict when the stored reminder is already sent.
	Update(ctx context.Context, r Reminder) error
	Delete(ctx context.Context, id string) error
	DeleteByGoal(ctx context.Context, goalID string) (int, error)
	// ListByUser returns the user's reminders ordered by RemindAt.
	ListByUser(ctx context.Context, userID string) ([]Reminder, error)
	// FindDue returns active, unsent reminders with RemindAt <= now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]Reminder, error)
	// MarkSent sets IsSent where it is still false and reports whether this
	// call made the change.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
}
