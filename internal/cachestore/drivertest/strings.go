package drivertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
)

func testStrings(t *testing.T, newHarness HarnessMaker) {
	t.Run("SetAndGet", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "greeting", "hello"))

		value, err := cache.GetString(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", value)

		ttl, err := cache.TTL(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, driver.NoExpiry, ttl)
	})

	t.Run("SetEmptyValue", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "empty", ""))

		value, err := cache.GetString(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, "", value)
	})

	t.Run("GetMissing", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		_, err := cache.GetString(ctx, "missing")
		assert.ErrorIs(t, err, driver.ErrNotFound)
	})

	t.Run("SetStringEx", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		ok, err := cache.SetStringEx(ctx, "session", "abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		value, err := cache.GetString(ctx, "session")
		require.NoError(t, err)
		assert.Equal(t, "abc", value)

		ttl, err := cache.TTL(ctx, "session")
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, time.Minute)
		assert.Greater(t, ttl, 50*time.Second)
	})

	t.Run("SetNX", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		ok, err := cache.SetNX(ctx, "once", "first", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.SetNX(ctx, "once", "second", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		value, err := cache.GetString(ctx, "once")
		require.NoError(t, err)
		assert.Equal(t, "first", value)

		ttl, err := cache.TTL(ctx, "once")
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("Append", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		n, err := cache.Append(ctx, "log", "foo")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = cache.Append(ctx, "log", "bar")
		require.NoError(t, err)
		assert.Equal(t, int64(6), n)

		value, err := cache.GetString(ctx, "log")
		require.NoError(t, err)
		assert.Equal(t, "foobar", value)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "doomed", "x"))

		n, err := cache.Delete(ctx, "doomed")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = cache.Delete(ctx, "doomed")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		exists, err := cache.Exists(ctx, "doomed")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetSet", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "token", "old"))

		old, err := cache.GetSet(ctx, "token", "new", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "old", old)

		value, err := cache.GetString(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, "new", value)

		ttl, err := cache.TTL(ctx, "token")
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("GetSetMissingKeyWritesNothing", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		_, err := cache.GetSet(ctx, "absent", "value", time.Minute)
		assert.ErrorIs(t, err, driver.ErrNotFound)

		exists, err := cache.Exists(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
