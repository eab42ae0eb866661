// Package driver defines the Cache interface and associated types.
package driver

import (
	"context"
	"errors"
	"time"
)

// NoExpiry is returned by TTL for keys that exist without an expiry.
const NoExpiry = time.Duration(-1)

// Cache is the interface for prefixed string storage.
//
// Every key argument is the caller's key; implementations store it under
// RealKey(key). A ttl of zero means the value never expires.
type Cache interface {
	SetString(ctx context.Context, key, value string) error
	SetStringEx(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	GetString(ctx context.Context, key string) (string, error)
	Append(ctx context.Context, key, value string) (int64, error)
	Delete(ctx context.Context, key string) (int64, error)
	GetSet(ctx context.Context, key, value string, ttl time.Duration) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)

	NewLock(name string, ttl time.Duration) Locker

	Prefix() string
	RealKey(key string) string

	Ping(ctx context.Context) error
	Close() error
}

// Locker is a mutual exclusion lock held in the cache keyspace.
type Locker interface {
	AttemptLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) (bool, error)
}

var ErrNotFound = errors.New("cache key does not exist")
