package drivertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
)

func testMisc(t *testing.T, newHarness HarnessMaker) {
	t.Run("Ping", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)
		assert.NoError(t, cache.Ping(ctx))
	})

	t.Run("Expire", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		ok, err := cache.Expire(ctx, "missing", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.SetString(ctx, "present", "x"))
		ok, err = cache.Expire(ctx, "present", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ttl, err := cache.TTL(ctx, "present")
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		_, err = cache.TTL(ctx, "missing")
		assert.ErrorIs(t, err, driver.ErrNotFound)
	})

	t.Run("RealKey", func(t *testing.T) {
		_, cache := makeDriver(t, newHarness)
		assert.Equal(t, cache.Prefix()+"user:1", cache.RealKey("user:1"))
	})

	t.Run("PrefixIsolation", func(t *testing.T) {
		ctx := context.Background()
		h, err := newHarness(ctx, t)
		require.NoError(t, err)
		t.Cleanup(h.Close)

		cache1, cache2, err := h.MakeIsolatedDrivers(ctx)
		require.NoError(t, err)
		require.NotEqual(t, cache1.Prefix(), cache2.Prefix())

		require.NoError(t, cache1.SetString(ctx, "shared", "one"))
		require.NoError(t, cache2.SetString(ctx, "shared", "two"))

		v1, err := cache1.GetString(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, "one", v1)

		v2, err := cache2.GetString(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, "two", v2)

		n, err := cache1.Delete(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = cache1.GetString(ctx, "shared")
		assert.ErrorIs(t, err, driver.ErrNotFound)
		v2, err = cache2.GetString(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, "two", v2)
	})

	t.Run("Lock", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		first := cache.NewLock("rebuild", time.Minute)
		second := cache.NewLock("rebuild", time.Minute)

		locked, err := first.AttemptLock(ctx)
		require.NoError(t, err)
		assert.True(t, locked)

		exists, err := cache.Exists(ctx, "lock:rebuild")
		require.NoError(t, err)
		assert.True(t, exists, "lock lives inside the cache prefix")

		locked, err = second.AttemptLock(ctx)
		require.NoError(t, err)
		assert.False(t, locked)

		unlocked, err := first.Unlock(ctx)
		require.NoError(t, err)
		assert.True(t, unlocked)

		locked, err = second.AttemptLock(ctx)
		require.NoError(t, err)
		assert.True(t, locked)
	})
}
