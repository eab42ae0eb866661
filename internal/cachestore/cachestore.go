// Package cachestore provides the Cache facade over the supported Redis topologies.
package cachestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/szhtp/ucc-cache/internal/cachestore/driver"
	"github.com/szhtp/ucc-cache/internal/cachestore/rediscachestore"
	"github.com/szhtp/ucc-cache/internal/logging"
	"github.com/szhtp/ucc-cache/internal/redis"
)

// Type aliases re-exported from driver.
type Cache = driver.Cache
type Locker = driver.Locker

// Error sentinels re-exported from driver.
var (
	ErrNotFound = driver.ErrNotFound
)

const (
	DefaultPrefix = rediscachestore.DefaultPrefix
	NoExpiry      = driver.NoExpiry
)

// Config holds the configuration for creating a Cache.
type Config struct {
	RedisClient redis.Client
	Prefix      string
	Logger      *logging.Logger
}

// New creates a new Redis-backed Cache over an existing client.
func New(cfg Config) Cache {
	var opts []rediscachestore.Option
	if cfg.Prefix != "" {
		opts = append(opts, rediscachestore.WithPrefix(cfg.Prefix))
	}
	if cfg.Logger != nil {
		opts = append(opts, rediscachestore.WithLogger(cfg.Logger))
	}
	return rediscachestore.New(cfg.RedisClient, opts...)
}

// Open connects to Redis in the topology described by redisConfig and
// returns a Cache that owns the connection.
func Open(ctx context.Context, redisConfig *redis.RedisConfig, prefix string, logger *logging.Logger) (Cache, error) {
	if redisConfig == nil {
		return nil, errors.New("redis configuration is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client, err := redis.NewClient(ctx, redisConfig, logger.Logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis (%s): %w", redisConfig.Mode, err)
	}
	return New(Config{
		RedisClient: client,
		Prefix:      prefix,
		Logger:      logger,
	}), nil
}
