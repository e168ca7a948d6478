package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mode tells how a queue executes jobs.
type Mode string

const (
	ModeDurable   Mode = "durable"
	ModeImmediate Mode = "immediate"
)

// State is the lifecycle state of a durable job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateDead       State = "dead"
)

// Priority orders ready jobs, higher first (0-100).
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityMedium  Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within valid range
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// DefaultMaxAttempts is the attempt ceiling applied when none is configured.
const DefaultMaxAttempts = 3

// Payload is the notification a job carries.
type Payload struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate reports whether the payload can be delivered at all.
func (p Payload) Validate() error {
	if p.Channel == "" || p.To == "" {
		return ErrInvalidPayload
	}
	return nil
}

// Job is a payload persisted by a durable storage.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Payload     Payload    `json:"payload"`
	Priority    Priority   `json:"priority"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	State       State      `json:"state"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID `json:"locked_by,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Handle identifies an accepted job.
type Handle struct {
	JobID uuid.UUID
	Mode  Mode
}

// Handler executes a job payload. A returned error counts as a failed attempt.
type Handler interface {
	Handle(ctx context.Context, payload Payload) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, payload Payload) error

// Handle calls f(ctx, payload).
func (f HandlerFunc) Handle(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

// Queue accepts notification jobs.
type Queue interface {
	Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (Handle, error)
	Mode() Mode
	Shutdown(ctx context.Context) error
}
