// Package rediscachestore provides a Redis-backed implementation of driver.Cache.
package rediscachestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
	"github.com/szhtp/ucc-cache/internal/logging"
	"github.com/szhtp/ucc-cache/internal/redis"
	"github.com/szhtp/ucc-cache/internal/redislock"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DefaultPrefix namespaces keys when several applications share one Redis.
const DefaultPrefix = "ucc_"

type store struct {
	client        redis.Client
	prefix        string
	logger        *logging.Logger
	meterProvider metric.MeterProvider
	metrics       *metrics
}

var _ driver.Cache = (*store)(nil)

// Option configures a rediscachestore.
type Option func(*store)

// WithPrefix sets the key prefix. A blank prefix keeps the default.
func WithPrefix(prefix string) Option {
	return func(s *store) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

// WithLogger sets the logger used to report failed operations.
func WithLogger(logger *logging.Logger) Option {
	return func(s *store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMeterProvider sets the provider the cache counters are registered on.
// Without it the global provider is used.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(s *store) {
		s.meterProvider = provider
	}
}

// New creates a new Redis-backed Cache. The store owns client and closes it
// on Close.
func New(client redis.Client, opts ...Option) driver.Cache {
	s := &store{
		client: client,
		prefix: DefaultPrefix,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.meterProvider)
	return s
}

func (s *store) Prefix() string {
	return s.prefix
}

func (s *store) RealKey(key string) string {
	if strings.TrimSpace(s.prefix) == "" {
		return key
	}
	return s.prefix + key
}

// fail logs and counts a failed operation and passes err through.
func (s *store) fail(ctx context.Context, op, key string, err error) error {
	s.metrics.recordError(ctx, op)
	s.logger.Ctx(ctx).Error("cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	return err
}

func (s *store) SetString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.RealKey(key), value, 0).Err(); err != nil {
		return s.fail(ctx, "set", key, err)
	}
	return nil
}

func (s *store) SetStringEx(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	result, err := s.client.Set(ctx, s.RealKey(key), value, ttl).Result()
	if err != nil {
		return false, s.fail(ctx, "setex", key, err)
	}
	return result == "OK", nil
}

func (s *store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.RealKey(key), value, ttl).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(ctx, "setnx", key, err)
	}
	return ok, nil
}

func (s *store) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.RealKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		s.metrics.recordMiss(ctx, "get")
		return "", driver.ErrNotFound
	}
	if err != nil {
		return "", s.fail(ctx, "get", key, err)
	}
	s.metrics.recordHit(ctx, "get")
	return value, nil
}

func (s *store) Append(ctx context.Context, key, value string) (int64, error) {
	n, err := s.client.Append(ctx, s.RealKey(key), value).Result()
	if err != nil {
		return 0, s.fail(ctx, "append", key, err)
	}
	return n, nil
}

func (s *store) Delete(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Del(ctx, s.RealKey(key)).Result()
	if err != nil {
		return 0, s.fail(ctx, "del", key, err)
	}
	return n, nil
}

func (s *store) GetSet(ctx context.Context, key, value string, ttl time.Duration) (string, error) {
	old, err := getSetExistingScript.Run(ctx, s.client, []string{s.RealKey(key)}, value, expiryMillis(ttl)).Text()
	if errors.Is(err, redis.Nil) {
		s.metrics.recordMiss(ctx, "getset")
		return "", driver.ErrNotFound
	}
	if err != nil {
		return "", s.fail(ctx, "getset", key, err)
	}
	s.metrics.recordHit(ctx, "getset")
	return old, nil
}

// expiryMillis converts ttl for PEXPIRE. A positive ttl below one
// millisecond rounds up to 1ms instead of truncating to "no expiry".
func expiryMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	if ms := ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}

func (s *store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.RealKey(key)).Result()
	if err != nil {
		return 0, s.fail(ctx, "incr", key, err)
	}
	return n, nil
}

// IncrExpire increments key and sets its expiry in the same transaction, so
// a key created by the increment never lives without a TTL.
func (s *store) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	realKey := s.RealKey(key)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, realKey)
		if ttl > 0 {
			pipe.Expire(ctx, realKey, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(ctx, "incr", key, err)
	}
	return incr.Val(), nil
}

func (s *store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.RealKey(key)).Result()
	if err != nil {
		return false, s.fail(ctx, "exists", key, err)
	}
	return n > 0, nil
}

func (s *store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, s.RealKey(key), ttl).Result()
	if err != nil {
		return false, s.fail(ctx, "expire", key, err)
	}
	return ok, nil
}

func (s *store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.RealKey(key)).Result()
	if err != nil {
		return 0, s.fail(ctx, "ttl", key, err)
	}
	// go-redis passes the -2 and -1 replies through unscaled.
	switch ttl {
	case -2:
		return 0, driver.ErrNotFound
	case -1:
		return driver.NoExpiry, nil
	}
	return ttl, nil
}

func (s *store) NewLock(name string, ttl time.Duration) driver.Locker {
	return redislock.New(s.client,
		redislock.WithKey(s.RealKey("lock:"+name)),
		redislock.WithTTL(ttl),
	)
}

func (s *store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.fail(ctx, "ping", "", err)
	}
	return nil
}

func (s *store) Close() error {
	return s.client.Close()
}
