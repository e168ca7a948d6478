package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/queue"
	"github.com/dmitrymomot/remindkit/pkg/transport"
)

// Observer receives the outcome of every send.
type Observer interface {
	ObserveDelivery(channel string, err error, d time.Duration)
}

// Worker delivers queue payloads through channel-specific senders.
type Worker struct {
	senders  map[string]transport.Sender
	limiters map[string]*rate.Limiter
	rate     float64
	burst    int
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

func NewWorker(opts ...Option) *Worker {
	w := &Worker{
		senders: make(map[string]transport.Sender),
		burst:   1,
		timeout: 15 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	// Limiters are built once so Deliver only reads the map.
	w.limiters = make(map[string]*rate.Limiter, len(w.senders))
	for channel := range w.senders {
		limit := rate.Inf
		if w.rate > 0 {
			limit = rate.Limit(w.rate)
		}
		w.limiters[channel] = rate.NewLimiter(limit, w.burst)
	}
	w.logger = w.logger.With(logger.Component("delivery"))
	return w
}

// Channels lists the channels with a registered sender.
func (w *Worker) Channels() []string {
	channels := make([]string, 0, len(w.senders))
	for c := range w.senders {
		channels = append(channels, c)
	}
	slices.Sort(channels)
	return channels
}

// Deliver sends p through its channel's sender. Failures are wrapped in ErrTransport.
func (w *Worker) Deliver(ctx context.Context, p queue.Payload) error {
	sender, ok := w.senders[p.Channel]
	if !ok {
		return errors.Join(ErrTransport, fmt.Errorf("%w: %q", ErrUnknownChannel, p.Channel))
	}

	if err := w.limiters[p.Channel].Wait(ctx); err != nil {
		return errors.Join(ErrTransport, fmt.Errorf("rate limit wait: %w", err))
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(sendCtx, transport.Message{
		To:      p.To,
		Subject: p.Subject,
		Body:    p.Body,
		Tag:     "reminder",
	})
	d := time.Since(start)

	if w.observer != nil {
		w.observer.ObserveDelivery(p.Channel, err, d)
	}
	if err != nil {
		w.logger.WarnContext(ctx, "notification send failed",
			logger.Channel(p.Channel),
			logger.Duration(d),
			logger.Error(err),
		)
		return errors.Join(ErrTransport, err)
	}

	w.logger.DebugContext(ctx, "notification sent", logger.Channel(p.Channel), logger.Duration(d))
	return nil
}

// Handler adapts the worker to the notification queue.
func (w *Worker) Handler() queue.Handler {
	return queue.HandlerFunc(w.Deliver)
}
