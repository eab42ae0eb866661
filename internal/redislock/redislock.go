// Package redislock provides a best-effort lock on top of the cache keyspace.
//
// The lock is the single-instance SET NX PX pattern described in
// https://redis.io/docs/latest/develop/use/patterns/distributed-locks/ and
// gives no guarantees across a sentinel promotion or a cluster resharding.
// Callers should use it to avoid duplicate work, not to protect data
// integrity.
package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/szhtp/ucc-cache/internal/redis"
)

const (
	DefaultKey = "ucc:lock"
	DefaultTTL = 10 * time.Second
)

// Lock defines the interface for distributed locking
type Lock interface {
	AttemptLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) (bool, error)
}

// Only delete the key if it still holds our token, so a lock that expired
// and was taken by another holder is left alone.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type redisLock struct {
	client redis.Cmdable
	key    string
	value  string
	ttl    time.Duration
}

// Option configures a redisLock
type Option func(*redisLock)

// WithKey sets a custom key for the lock
func WithKey(key string) Option {
	return func(l *redisLock) {
		l.key = key
	}
}

// WithTTL sets a custom TTL for the lock
func WithTTL(ttl time.Duration) Option {
	return func(l *redisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// New creates a new Redis-based lock
func New(client redis.Cmdable, opts ...Option) Lock {
	lock := &redisLock{
		client: client,
		key:    DefaultKey,
		value:  generateRandomValue(),
		ttl:    DefaultTTL,
	}

	for _, opt := range opts {
		opt(lock)
	}

	return lock
}

// AttemptLock returns true if the lock was acquired, false if it is held by
// another process.
func (l *redisLock) AttemptLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
}

// Unlock returns true if the lock was released, false if it was not held by us.
func (l *redisLock) Unlock(ctx context.Context) (bool, error) {
	val, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// generateRandomValue creates the token identifying this lock holder.
func generateRandomValue() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err == nil {
		return hex.EncodeToString(b)
	}

	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%d-%s-%d", time.Now().UnixNano(), hostname, os.Getpid())
}
