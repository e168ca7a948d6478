package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subscription receives values published after it was created.
type Subscription[T any] struct {
	ch     chan T
	closed bool
	mu     sync.RWMutex
	owner  *Broadcaster[T]
}

// C returns the receive channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close ends the subscription. Safe to call multiple times.
func (s *Subscription[T]) Close() error {
	if s.owner != nil {
		s.owner.remove(s)
		return nil
	}
	s.close()
	return nil
}

func (s *Subscription[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

func (s *Subscription[T]) offer(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Broadcaster delivers every published value to all live subscriptions.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	subs       map[*Subscription[T]]struct{}
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
	mu         sync.RWMutex
}

// New creates a broadcaster whose subscriptions buffer up to bufferSize values.
// A minimum buffer of 1 is enforced.
func New[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subs:       make(map[*Subscription[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a new subscription bound to ctx.
// Subscribing to a closed broadcaster returns an already closed subscription.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription[T]{ch: make(chan T, b.bufferSize)}
	if b.closed {
		sub.close()
		return sub
	}

	sub.owner = b
	b.subs[sub] = struct{}{}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			b.remove(sub)
		}()
	}

	return sub
}

// Publish offers v to every subscription without blocking.
// Values a slow subscriber cannot buffer are dropped for that subscriber only.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for sub := range b.subs {
		if !sub.offer(v) {
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Broadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Len returns the number of live subscriptions.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends all subscriptions. Later Publish calls are ignored.
func (b *Broadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for sub := range b.subs {
		sub.close()
	}
	clear(b.subs)
	b.mu.Unlock()

	return nil
}

func (b *Broadcaster[T]) remove(sub *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()

	sub.close()
}
