package crawl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements sift.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ sift.DomainLimiter = crawl.NewDomainLimiter(1, 1)
	})

	t.Run("first request to a domain is immediate", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(10, 1)

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("paces requests to the same domain", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(10, 1)
		require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("burst admits several requests at once", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(1, 3)

		start := time.Now()
		for range 3 {
			require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("domains are limited independently", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(10, 1)
		require.NoError(t, limiter.Wait(context.Background(), "a.example.com"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "b.example.com"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(0, 1)

		start := time.Now()
		for range 20 {
			require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(1, 1)
		require.NoError(t, limiter.Wait(context.Background(), "news.example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx, "news.example.com"))
	})

	t.Run("concurrent waiters all complete", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(100, 1)

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background(), "news.example.com"); err == nil {
					completed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(5), completed.Load())
	})
}
