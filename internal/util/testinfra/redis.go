package testinfra

import (
	"context"
	"fmt"
	"log"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	redisOnce    sync.Once
	valkeyOnce   sync.Once
	redisDBMu    sync.Mutex
	valkeyDBMu   sync.Mutex
	redisDBUsed  = make(map[int]bool)
	valkeyDBUsed = make(map[int]bool)
)

const maxRedisDBs = 16

// RedisConfig holds the connection info for a test Redis database.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewRedisConfig allocates a Redis database (0-15) for the test.
// The database is flushed on cleanup.
func NewRedisConfig(t *testing.T) RedisConfig {
	return newDBConfig(t, EnsureRedis(), &redisDBMu, redisDBUsed)
}

// NewValkeyConfig allocates a Valkey database (0-15) for the test.
// The database is flushed on cleanup.
func NewValkeyConfig(t *testing.T) RedisConfig {
	return newDBConfig(t, EnsureValkey(), &valkeyDBMu, valkeyDBUsed)
}

func newDBConfig(t *testing.T, addr string, mu *sync.Mutex, used map[int]bool) RedisConfig {
	db := allocateDB(mu, used)

	t.Cleanup(func() {
		flushRedisDB(addr, db)
		releaseDB(mu, used, db)
	})

	return RedisConfig{
		Addr: addr,
		DB:   db,
	}
}

func allocateDB(mu *sync.Mutex, used map[int]bool) int {
	mu.Lock()
	defer mu.Unlock()

	for i := 0; i < maxRedisDBs; i++ {
		if !used[i] {
			used[i] = true
			return i
		}
	}
	panic(fmt.Sprintf("no available databases (max %d)", maxRedisDBs))
}

func releaseDB(mu *sync.Mutex, used map[int]bool, db int) {
	mu.Lock()
	defer mu.Unlock()
	delete(used, db)
}

func flushRedisDB(addr string, db int) {
	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
		DB:   db,
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		log.Printf("failed to flush Redis DB %d: %s", db, err)
	}
}

func EnsureRedis() string {
	cfg := ReadConfig()
	if cfg.RedisURL == "" {
		redisOnce.Do(func() {
			cfg.RedisURL = startRedisCompatibleContainer(cfg, "redis:7-alpine")
		})
	}
	return cfg.RedisURL
}

func EnsureValkey() string {
	cfg := ReadConfig()
	if cfg.ValkeyURL == "" {
		valkeyOnce.Do(func() {
			cfg.ValkeyURL = startRedisCompatibleContainer(cfg, "valkey/valkey:8-alpine")
		})
	}
	return cfg.ValkeyURL
}

func startRedisCompatibleContainer(cfg *Config, image string) string {
	ctx := context.Background()

	container, err := redis.Run(ctx, image)
	if err != nil {
		panic(err)
	}

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		panic(err)
	}
	log.Printf("%s running at %s", image, endpoint)
	cfg.addCleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	})
	return endpoint
}
