package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/sift"
	sredis "github.com/fwojciec/sift/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupStore_URLClaims(t *testing.T) {
	t.Parallel()

	t.Run("first claim wins", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)
		ctx := context.Background()

		ok, err := store.MarkURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.False(t, ok)

		seen, err := store.IsURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("claims are scoped to the topic", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)
		ctx := context.Background()
		_, err := store.MarkURLSeen(ctx, "a", "https://example.com/x")
		require.NoError(t, err)

		seen, err := store.IsURLSeen(ctx, "b", "https://example.com/x")

		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("claims expire after the ttl", func(t *testing.T) {
		t.Parallel()

		mr, client := setup(t)
		store := sredis.NewDedupStore(client, sredis.WithURLTTL(time.Hour))
		ctx := context.Background()
		_, err := store.MarkURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)

		mr.FastForward(time.Hour + time.Second)

		seen, err := store.IsURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.False(t, seen)
		ok, err := store.MarkURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release frees the claim", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)
		ctx := context.Background()
		_, err := store.MarkURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)

		require.NoError(t, store.ReleaseURL(ctx, "t", "https://example.com/a"))

		seen, err := store.IsURLSeen(ctx, "t", "https://example.com/a")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("concurrent claims grant exactly one", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		var granted int
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.MarkURLSeen(ctx, "t", "https://example.com/race")
				if err == nil && ok {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, granted)
	})
}

func TestDedupStore_Fingerprints(t *testing.T) {
	t.Parallel()

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)
		ctx := context.Background()
		for _, fp := range []uint64{1, 2, 0xffffffffffffffff} {
			require.NoError(t, store.AddFingerprint(ctx, "t", fp))
		}

		fps, err := store.RecentFingerprints(ctx, "t")

		require.NoError(t, err)
		assert.Equal(t, []uint64{0xffffffffffffffff, 2, 1}, fps)
	})

	t.Run("keeps only the window", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client, sredis.WithFingerprintWindow(2))
		ctx := context.Background()
		for _, fp := range []uint64{1, 2, 3} {
			require.NoError(t, store.AddFingerprint(ctx, "t", fp))
		}

		fps, err := store.RecentFingerprints(ctx, "t")

		require.NoError(t, err)
		assert.Equal(t, []uint64{3, 2}, fps)
	})

	t.Run("is empty for a new topic", func(t *testing.T) {
		t.Parallel()

		_, client := setup(t)
		store := sredis.NewDedupStore(client)

		fps, err := store.RecentFingerprints(context.Background(), "t")

		require.NoError(t, err)
		assert.Empty(t, fps)
	})
}

func TestDedupStore_Rejections(t *testing.T) {
	t.Parallel()

	_, client := setup(t)
	store := sredis.NewDedupStore(client)
	ctx := context.Background()

	_, ok, err := store.Rejection(ctx, "t", "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MarkRejected(ctx, "t", "https://example.com/a", sift.RejectRobots))

	reason, ok, err := store.Rejection(ctx, "t", "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sift.RejectRobots, reason)
}
