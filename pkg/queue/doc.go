// Package queue delivers notification jobs in one of two interchangeable modes.
//
// Durable mode persists jobs in Redis (or in memory for tests) and processes
// them with a bounded worker pool. Failed jobs are retried with exponential
// backoff (base * 2^n where n is the number of retries already made) until
// MaxAttempts is reached, after which they are moved to the dead state and kept
// for inspection. A reaper returns jobs whose worker lock expired to the queue.
//
// Immediate mode runs the handler inline inside Enqueue. It needs no
// infrastructure and offers no retries: a handler failure is returned to the
// caller wrapped in ErrDeliveryFailed.
//
// Service picks the mode once in Open and fails over from durable to immediate
// the first time the broker returns an error. The switch is one-way for the
// lifetime of the process.
//
//	svc, err := queue.Open(ctx, cfg, queue.HandlerFunc(deliver),
//		queue.WithLogger(log),
//		queue.WithEvents(events),
//	)
//	if err != nil {
//		return err
//	}
//	defer svc.Shutdown(context.Background())
//
//	h, err := svc.Enqueue(ctx, queue.Payload{
//		Channel: "email",
//		To:      "user@example.com",
//		Subject: "Reminder",
//		Body:    "Submit the quarterly report",
//	})
//
// Lifecycle events (connected, ready, completed, failed, stalled, dead,
// fallback) are published to a broadcast.Broadcaster[Event] that callers can
// subscribe to.
package queue
