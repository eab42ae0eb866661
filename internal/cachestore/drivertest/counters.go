package drivertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
)

func testCounters(t *testing.T, newHarness HarnessMaker) {
	t.Run("Incr", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		for want := int64(1); want <= 3; want++ {
			n, err := cache.Incr(ctx, "hits")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}

		ttl, err := cache.TTL(ctx, "hits")
		require.NoError(t, err)
		assert.Equal(t, driver.NoExpiry, ttl)
	})

	t.Run("IncrExpireOnNewKey", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		n, err := cache.IncrExpire(ctx, "rate", 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		// The first increment creates the key, and it must carry the expiry.
		ttl, err := cache.TTL(ctx, "rate")
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, 30*time.Second)
		assert.Greater(t, ttl, 20*time.Second)

		n, err = cache.IncrExpire(ctx, "rate", 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("IncrNonInteger", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "name", "not-a-number"))

		_, err := cache.Incr(ctx, "name")
		assert.Error(t, err)
	})
}
