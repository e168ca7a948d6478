package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/pkg/broadcast"
)

func receive[T any](t *testing.T, sub *broadcast.Subscription[T]) (T, bool) {
	t.Helper()

	select {
	case v, ok := <-sub.C():
		return v, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero, false
}

func TestBroadcaster_Publish(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every subscriber", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string](4)
		defer b.Close()

		s1 := b.Subscribe(context.Background())
		s2 := b.Subscribe(context.Background())
		require.Equal(t, 2, b.Len())

		b.Publish("ready")

		v, ok := receive(t, s1)
		require.True(t, ok)
		assert.Equal(t, "ready", v)

		v, ok = receive(t, s2)
		require.True(t, ok)
		assert.Equal(t, "ready", v)
	})

	t.Run("drops values for full subscribers", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		b.Publish(1)
		b.Publish(2)

		v, ok := receive(t, sub)
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, uint64(1), b.Dropped())
	})

	t.Run("publish after close is ignored", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		require.NoError(t, b.Close())
		b.Publish(1)
		assert.Zero(t, b.Dropped())
	})
}

func TestBroadcaster_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("context cancellation ends subscription", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("subscribe after close returns closed subscription", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := receive(t, sub)
		assert.False(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		sub := b.Subscribe(context.Background())
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		assert.Zero(t, b.Len())
	})
}

func TestBroadcaster_ConcurrentPublish(t *testing.T) {
	t.Parallel()

	b := broadcast.New[int](1000)
	defer b.Close()

	sub := b.Subscribe(context.Background())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 50 {
				b.Publish(n*100 + j)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, sub.C(), 500)
}
