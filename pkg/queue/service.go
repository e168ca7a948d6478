package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/remindkit/pkg/broadcast"
	"github.com/dmitrymomot/remindkit/pkg/logger"
	redisconn "github.com/dmitrymomot/remindkit/pkg/redis"
)

// Service is the Queue the rest of the application talks to. It starts in the
// mode chosen by Open and drops to immediate mode, permanently, the first time
// the durable backend fails.
type Service struct {
	durable   *DurableQueue
	storage   Storage
	immediate *ImmediateQueue
	degraded  atomic.Bool

	events  *broadcast.Broadcaster[Event]
	logger  *slog.Logger
	closers []func() error

	stopTimeout time.Duration
	mu          sync.Mutex
	closed      bool
	bg          sync.WaitGroup
	once        sync.Once
	shutdownErr error
}

// Open builds the queue service. It never fails because the broker is missing
// or unreachable: both cases are logged as warnings and the service runs in
// immediate mode.
func Open(ctx context.Context, cfg Config, handler Handler, opts ...Option) (*Service, error) {
	if handler == nil {
		return nil, ErrHandlerNil
	}

	o := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.events == nil {
		o.events = broadcast.New[Event](64)
	}

	s := &Service{
		events:      o.events,
		logger:      o.logger.With(logger.Component("queue")),
		stopTimeout: cfg.ShutdownTimeout,
	}
	if s.stopTimeout <= 0 {
		s.stopTimeout = 30 * time.Second
	}

	imm, err := NewImmediateQueue(handler, o.logger, s.publish)
	if err != nil {
		return nil, err
	}
	s.immediate = imm

	storage := o.storage
	switch {
	case cfg.Disabled:
		s.logger.Warn("durable queue disabled by configuration, using immediate mode",
			logger.Error(ErrNotConfigured))
		return s, nil
	case storage == nil && cfg.RedisURL == "":
		s.logger.Warn("no queue broker configured, using immediate mode",
			logger.Error(ErrNotConfigured))
		return s, nil
	case storage == nil:
		client, err := redisconn.Connect(ctx, redisconn.Config{
			ConnectionURL:  cfg.RedisURL,
			RetryAttempts:  cfg.ConnectRetries,
			RetryInterval:  time.Second,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			s.logger.Warn("queue broker unreachable, using immediate mode", logger.Error(err))
			return s, nil
		}
		s.closers = append(s.closers, client.Close)
		storage = NewRedisStorage(client, WithKeyPrefix(cfg.Prefix))
	}
	s.publish(Event{Type: EventConnected, Mode: ModeDurable})

	enqueuer, err := NewEnqueuer(storage, WithDefaultMaxAttempts(cfg.MaxAttempts))
	if err != nil {
		return nil, err
	}
	worker, err := NewWorker(storage, handler,
		WithConcurrency(cfg.Concurrency),
		WithPollInterval(cfg.PollInterval),
		WithLockTimeout(cfg.LockTimeout),
		WithReapInterval(cfg.ReapInterval),
		WithBackoff(cfg.BackoffBase, cfg.MaxBackoff),
		WithWorkerLogger(o.logger),
		WithEventSink(s.publish),
		WithBrokerErrorHook(s.fallback),
	)
	if err != nil {
		return nil, err
	}

	durable := NewDurableQueue(enqueuer, worker)
	if err := durable.Start(context.WithoutCancel(ctx)); err != nil {
		s.closeResources()
		return nil, err
	}
	s.durable = durable
	s.storage = storage

	s.logger.Info("queue opened", logger.Mode(string(ModeDurable)))
	return s, nil
}

// Enqueue hands the payload to the current mode. A broker failure in durable
// mode triggers the switch to immediate mode and the payload is delivered
// inline, so callers see ErrDeliveryFailed rather than ErrBroker. A cancelled
// or expired ctx is the caller's problem and never switches modes.
func (s *Service) Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (Handle, error) {
	if s.isClosed() {
		return Handle{}, ErrQueueClosed
	}

	if s.Mode() == ModeDurable {
		h, err := s.durable.Enqueue(ctx, payload, opts...)
		switch {
		case err == nil:
			return h, nil
		case errors.Is(err, ErrQueueClosed) && !s.isClosed():
			// durable queue was torn down by a concurrent fallback
		case errors.Is(err, ErrBroker) && ctx.Err() == nil:
			s.fallback(err)
		default:
			return h, err
		}
	}

	return s.immediate.Enqueue(ctx, payload, opts...)
}

// Mode reports the mode new jobs are handled in.
func (s *Service) Mode() Mode {
	if s.durable == nil || s.degraded.Load() {
		return ModeImmediate
	}
	return ModeDurable
}

// Subscribe returns a subscription to lifecycle events bound to ctx.
func (s *Service) Subscribe(ctx context.Context) *broadcast.Subscription[Event] {
	return s.events.Subscribe(ctx)
}

// GetJob reads a durable job. It fails with ErrNotConfigured in immediate mode
// from start.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	if s.storage == nil {
		return nil, ErrNotConfigured
	}
	return s.storage.GetJob(ctx, id)
}

// ListDead returns up to limit jobs that exhausted their attempts.
func (s *Service) ListDead(ctx context.Context, limit int) ([]*Job, error) {
	if s.storage == nil {
		return nil, ErrNotConfigured
	}
	return s.storage.ListDead(ctx, limit)
}

// CountDead returns the number of jobs in the dead state.
func (s *Service) CountDead(ctx context.Context) (int, error) {
	if s.storage == nil {
		return 0, ErrNotConfigured
	}
	return s.storage.CountDead(ctx)
}

// Shutdown stops intake, waits for in-flight jobs until ctx is done, closes
// the event broadcaster and the broker connection. Later calls return the
// first call's result.
func (s *Service) Shutdown(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.durable != nil {
			errs = append(errs, s.durable.Shutdown(ctx))
		}
		errs = append(errs, s.immediate.Shutdown(ctx))

		done := make(chan struct{})
		go func() {
			s.bg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}

		errs = append(errs, s.closeResources())
		s.shutdownErr = errors.Join(errs...)

		if s.shutdownErr != nil {
			s.logger.Error("queue shutdown incomplete", logger.Error(s.shutdownErr))
		} else {
			s.logger.Info("queue shut down")
		}
	})
	return s.shutdownErr
}

// fallback flips the service to immediate mode once and drains the durable
// worker in the background.
func (s *Service) fallback(cause error) {
	if s.durable == nil || !s.degraded.CompareAndSwap(false, true) {
		return
	}

	s.logger.Warn("queue broker failed, switching to immediate mode until restart",
		logger.Error(cause))
	s.publish(Event{Type: EventFallback, Mode: ModeImmediate, Err: cause})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
		defer cancel()
		if err := s.durable.Shutdown(ctx); err != nil {
			s.logger.Error("failed to stop durable worker after fallback", logger.Error(err))
		}
	}()
}

func (s *Service) publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.events.Publish(e)
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Service) closeResources() error {
	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	s.closers = nil
	errs = append(errs, s.events.Close())
	return errors.Join(errs...)
}
