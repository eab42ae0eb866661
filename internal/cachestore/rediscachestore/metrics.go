package rediscachestore

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/szhtp/ucc-cache/internal/cachestore"

type metrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	errors metric.Int64Counter
}

// newMetrics registers the cache counters on provider, or on the global
// meter provider when provider is nil. Counters that fail to register fall
// back to no-ops.
func newMetrics(provider metric.MeterProvider) *metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	return &metrics{
		hits:   counter("ucc_cache.hits", "Number of reads that found the key"),
		misses: counter("ucc_cache.misses", "Number of reads that did not find the key"),
		errors: counter("ucc_cache.errors", "Number of failed cache operations"),
	}
}

func (m *metrics) recordHit(ctx context.Context, op string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *metrics) recordMiss(ctx context.Context, op string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *metrics) recordError(ctx context.Context, op string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
