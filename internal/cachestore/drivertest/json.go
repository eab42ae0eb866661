package drivertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/cachestore"
	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
)

type profile struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}

func testJSON(t *testing.T, newHarness HarnessMaker) {
	t.Run("Object", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		want := profile{ID: 7, Name: "ada", Roles: []string{"admin"}}
		require.NoError(t, cachestore.SetObject(ctx, cache, "profile:7", want, 0))

		got, err := cachestore.GetObject[profile](ctx, cache, "profile:7")
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	})

	t.Run("ObjectWithExpiry", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cachestore.SetObject(ctx, cache, "profile:8", profile{ID: 8}, time.Minute))

		ttl, err := cache.TTL(ctx, "profile:8")
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("ObjectMissingOrBlank", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		_, err := cachestore.GetObject[profile](ctx, cache, "profile:missing")
		assert.ErrorIs(t, err, driver.ErrNotFound)

		require.NoError(t, cache.SetString(ctx, "profile:blank", "  "))
		_, err = cachestore.GetObject[profile](ctx, cache, "profile:blank")
		assert.ErrorIs(t, err, driver.ErrNotFound)
	})

	t.Run("ObjectMalformed", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cache.SetString(ctx, "profile:bad", "{not json"))
		_, err := cachestore.GetObject[profile](ctx, cache, "profile:bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, driver.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		want := []profile{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
		require.NoError(t, cachestore.SetList(ctx, cache, "profiles", want, time.Minute))

		got, err := cachestore.GetList[profile](ctx, cache, "profiles")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("NilList", func(t *testing.T) {
		ctx, cache := makeDriver(t, newHarness)

		require.NoError(t, cachestore.SetList[profile](ctx, cache, "profiles", nil, 0))

		raw, err := cache.GetString(ctx, "profiles")
		require.NoError(t, err)
		assert.Equal(t, "[]", raw)

		got, err := cachestore.GetList[profile](ctx, cache, "profiles")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
