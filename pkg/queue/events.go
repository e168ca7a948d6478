package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a queue lifecycle event.
type EventType string

const (
	EventConnected EventType = "connected"
	EventReady     EventType = "ready"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventStalled   EventType = "stalled"
	EventDead      EventType = "dead"
	EventFallback  EventType = "fallback"
)

// Event is published on the queue's broadcaster.
type Event struct {
	Type     EventType
	JobID    uuid.UUID
	Mode     Mode
	Attempts int
	Err      error
	At       time.Time
}

// EventSink receives events. Implementations must not block.
type EventSink func(Event)

func (s EventSink) emit(e Event) {
	if s == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s(e)
}
