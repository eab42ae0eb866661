package testutil

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/szhtp/ucc-cache/internal/logging"
	internalredis "github.com/szhtp/ucc-cache/internal/redis"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func CheckIntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
}

// CreateTestRedis starts a miniredis server that lives for the duration of the test.
func CreateTestRedis(t *testing.T) *miniredis.Miniredis {
	mr := miniredis.RunT(t)

	t.Cleanup(func() {
		mr.Close()
	})

	return mr
}

func CreateTestRedisConfig(t *testing.T) *internalredis.RedisConfig {
	mr := CreateTestRedis(t)

	return &internalredis.RedisConfig{
		Mode:    internalredis.ModeStandalone,
		Servers: []string{mr.Addr()},
	}
}

func CreateTestRedisClient(t *testing.T) internalredis.Client {
	mr := CreateTestRedis(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func CreateTestLogger(t *testing.T) *logging.Logger {
	zapLogger := zaptest.NewLogger(t)
	logger := otelzap.New(zapLogger,
		otelzap.WithMinLevel(zap.InfoLevel),
	)
	return &logging.Logger{Logger: logger}
}

func RandomString(length int) string {
	b := make([]byte, length+2)
	rand.Read(b)
	return fmt.Sprintf("%x", b)[2 : length+2]
}
