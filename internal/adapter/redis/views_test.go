package redis_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/adapter/redis"
)

func newCounter(t *testing.T) (*redis.ViewCounter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(redis.Config{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis.NewViewCounter(client), s
}

func TestViewCounter(t *testing.T) {
	counter, s := newCounter(t)
	ctx := context.Background()

	t.Run("NeverViewed", func(t *testing.T) {
		n, err := counter.Views(ctx, "l-0")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Increment", func(t *testing.T) {
		n, err := counter.IncrementViews(ctx, "l-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = counter.IncrementViews(ctx, "l-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = counter.Views(ctx, "l-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, "2", s.HGet("rentwise:listing_views", "l-1"))
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = counter.IncrementViews(ctx, "l-2")
			}()
		}
		wg.Wait()

		n, err := counter.Views(ctx, "l-2")
		require.NoError(t, err)
		assert.Equal(t, int64(20), n)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, counter.Ping(ctx))
	})
}

func TestViewCounter_ServerDown(t *testing.T) {
	counter, s := newCounter(t)
	s.Close()

	_, err := counter.IncrementViews(context.Background(), "l-1")
	assert.Error(t, err)
}
