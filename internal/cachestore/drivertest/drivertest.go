// Package drivertest provides a conformance test suite for cachestore drivers.
package drivertest

import (
	"context"
	"testing"

	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
)

// Harness provides the test infrastructure for a cachestore driver implementation.
type Harness interface {
	// MakeDriver creates a driver with the default prefix.
	MakeDriver(ctx context.Context) (driver.Cache, error)
	// MakeIsolatedDrivers creates two drivers that share the same backend
	// but use different key prefixes.
	MakeIsolatedDrivers(ctx context.Context) (cache1, cache2 driver.Cache, err error)
	Close()
}

// HarnessMaker creates a new Harness for each test.
type HarnessMaker func(ctx context.Context, t *testing.T) (Harness, error)

// RunConformanceTests executes the conformance test suite for a cachestore driver.
// The suite is organized into four parts:
//   - Strings: set/get/append/delete/getset
//   - Counters: incr with and without expiry
//   - JSON: object and list helpers
//   - Misc: expiry, prefix isolation, locks
func RunConformanceTests(t *testing.T, newHarness HarnessMaker) {
	t.Helper()

	t.Run("Strings", func(t *testing.T) {
		testStrings(t, newHarness)
	})
	t.Run("Counters", func(t *testing.T) {
		testCounters(t, newHarness)
	})
	t.Run("JSON", func(t *testing.T) {
		testJSON(t, newHarness)
	})
	t.Run("Misc", func(t *testing.T) {
		testMisc(t, newHarness)
	})
}

func makeDriver(t *testing.T, newHarness HarnessMaker) (context.Context, driver.Cache) {
	t.Helper()

	ctx := context.Background()
	h, err := newHarness(ctx, t)
	if err != nil {
		t.Fatalf("failed to create harness: %v", err)
	}
	t.Cleanup(h.Close)

	cache, err := h.MakeDriver(ctx)
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}
	return ctx, cache
}
