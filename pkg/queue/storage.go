package queue

import (
	"context"

	"github.com/google/uuid"
)

// Inspector reads jobs for operators.
type Inspector interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)
	ListDead(ctx context.Context, limit int) ([]*Job, error)
	CountDead(ctx context.Context) (int, error)
}

// Storage is everything a durable queue needs from its backend.
type Storage interface {
	EnqueuerRepository
	WorkerRepository
	Inspector
}
