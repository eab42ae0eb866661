package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Reexport go-redis's Nil constant for DX purposes.
const (
	Nil = r.Nil
)

type (
	Cmdable   = r.Cmdable
	IntCmd    = r.IntCmd
	Pipeliner = r.Pipeliner
)

type Client interface {
	Cmdable
	Close() error
}

var NewScript = r.NewScript

var (
	once                sync.Once
	client              Client
	initializationError error
)

// New returns the process-wide client, creating it on first use.
func New(ctx context.Context, config *RedisConfig, logger *zap.Logger) (Client, error) {
	once.Do(func() {
		client, initializationError = NewClient(ctx, config, logger)
		if initializationError == nil {
			initializationError = InstrumentOpenTelemetry(client)
		}
	})

	// Ensure we never return nil client without an error
	if client == nil && initializationError == nil {
		initializationError = ErrClientNotAvailable
	}

	return client, initializationError
}

// NewClient creates a new Redis client without using the singleton
// This should be used by components that need their own Redis connection,
// such as libraries or in test scenarios where isolation is required
func NewClient(ctx context.Context, config *RedisConfig, logger *zap.Logger) (Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Mode {
	case ModeSentinel:
		return createSentinelClient(ctx, config)
	case ModeCluster:
		return createClusterClient(ctx, config)
	default:
		return createStandaloneClient(ctx, config, logger)
	}
}

func createStandaloneClient(ctx context.Context, config *RedisConfig, logger *zap.Logger) (Client, error) {
	standaloneClient := NewFailoverClient(standaloneOptions(config), config.Servers, logger)

	// Test connectivity
	if err := standaloneClient.Ping(ctx).Err(); err != nil {
		standaloneClient.Close()
		return nil, fmt.Errorf("redis standalone connection failed: %w", err)
	}

	return standaloneClient, nil
}

func createSentinelClient(ctx context.Context, config *RedisConfig) (Client, error) {
	sentinelClient := r.NewFailoverClient(sentinelOptions(config))

	// Test connectivity
	if err := sentinelClient.Ping(ctx).Err(); err != nil {
		sentinelClient.Close()
		return nil, fmt.Errorf("redis sentinel connection failed: %w", err)
	}

	return sentinelClient, nil
}

func createClusterClient(ctx context.Context, config *RedisConfig) (Client, error) {
	clusterClient := r.NewClusterClient(clusterOptions(config))

	// Test connectivity
	if err := clusterClient.Ping(ctx).Err(); err != nil {
		clusterClient.Close()
		return nil, fmt.Errorf("redis cluster connection failed: %w", err)
	}

	return clusterClient, nil
}

func standaloneOptions(config *RedisConfig) *r.Options {
	return &r.Options{
		Addr:            config.Servers[0],
		Username:        config.Username,
		Password:        config.Password,
		DB:              config.Database,
		PoolSize:        config.poolSize(),
		MinIdleConns:    config.MinIdleConns,
		MaxIdleConns:    config.MaxIdleConns,
		PoolTimeout:     durationOr(config.PoolTimeout, DefaultPoolTimeout),
		DialTimeout:     durationOr(config.DialTimeout, DefaultTimeout),
		ReadTimeout:     durationOr(config.ReadTimeout, DefaultTimeout),
		WriteTimeout:    durationOr(config.WriteTimeout, DefaultTimeout),
		ConnMaxIdleTime: durationOr(config.ConnMaxIdleTime, DefaultConnMaxIdleTime),
		TLSConfig:       tlsConfig(config),
	}
}

func sentinelOptions(config *RedisConfig) *r.FailoverOptions {
	return &r.FailoverOptions{
		MasterName:       config.MasterName,
		SentinelAddrs:    config.Servers,
		SentinelUsername: config.Username,
		SentinelPassword: config.Password,
		Username:         config.Username,
		Password:         config.Password,
		DB:               config.Database,
		PoolSize:         config.poolSize(),
		MinIdleConns:     config.MinIdleConns,
		MaxIdleConns:     config.MaxIdleConns,
		PoolTimeout:      durationOr(config.PoolTimeout, DefaultPoolTimeout),
		DialTimeout:      durationOr(config.DialTimeout, DefaultTimeout),
		ReadTimeout:      durationOr(config.ReadTimeout, DefaultTimeout),
		WriteTimeout:     durationOr(config.WriteTimeout, DefaultTimeout),
		ConnMaxIdleTime:  durationOr(config.ConnMaxIdleTime, DefaultConnMaxIdleTime),
		TLSConfig:        tlsConfig(config),
	}
}

func clusterOptions(config *RedisConfig) *r.ClusterOptions {
	// Cluster client auto-discovers the rest of the nodes from the seeds.
	options := &r.ClusterOptions{
		Addrs:           config.Servers,
		Username:        config.Username,
		Password:        config.Password,
		PoolSize:        config.poolSize(),
		MinIdleConns:    config.MinIdleConns,
		MaxIdleConns:    config.MaxIdleConns,
		PoolTimeout:     durationOr(config.PoolTimeout, DefaultPoolTimeout),
		DialTimeout:     durationOr(config.DialTimeout, DefaultTimeout),
		ReadTimeout:     durationOr(config.ReadTimeout, DefaultTimeout),
		WriteTimeout:    durationOr(config.WriteTimeout, DefaultTimeout),
		ConnMaxIdleTime: durationOr(config.ConnMaxIdleTime, DefaultConnMaxIdleTime),
		TLSConfig:       tlsConfig(config),
	}

	// Development only: Override discovered node IPs with the seed host
	// This is needed for Docker environments where Redis nodes announce internal IPs
	if config.DevClusterHostOverride {
		originalHost, _, err := net.SplitHostPort(config.Servers[0])
		if err != nil {
			originalHost = config.Servers[0]
		}
		options.NewClient = func(opt *r.Options) *r.Client {
			// Extract port from discovered address and combine with original host
			if idx := strings.LastIndex(opt.Addr, ":"); idx > 0 {
				port := opt.Addr[idx:] // includes the colon
				opt.Addr = originalHost + port
			}
			return r.NewClient(opt)
		}
	}

	return options
}

func tlsConfig(config *RedisConfig) *tls.Config {
	if !config.TLSEnabled {
		return nil
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
	}
}

// InstrumentOpenTelemetry attaches redisotel tracing and metrics to c.
func InstrumentOpenTelemetry(c Client) error {
	// OpenTelemetry instrumentation requires a concrete client type for type assertions
	var universal r.UniversalClient
	switch concrete := c.(type) {
	case *FailoverClient:
		universal = concrete.Client
	case *r.Client:
		universal = concrete
	case *r.ClusterClient:
		universal = concrete
	default:
		return nil
	}
	if err := redisotel.InstrumentTracing(universal); err != nil {
		return err
	}
	return redisotel.InstrumentMetrics(universal)
}
