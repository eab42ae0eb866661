package redis

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ModeStandalone Mode = iota
	ModeSentinel
	ModeCluster
)

// Mode is the Redis deployment topology a client connects to.
type Mode int

func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeSentinel:
		return "sentinel"
	case ModeCluster:
		return "cluster"
	}
	return "unknown"
}

func ModeFromString(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standalone":
		return ModeStandalone, nil
	case "sentinel":
		return ModeSentinel, nil
	case "cluster":
		return ModeCluster, nil
	}
	return Mode(-1), fmt.Errorf("%w: %s", ErrInvalidMode, s)
}

var (
	ErrInvalidMode        = errors.New("invalid redis mode")
	ErrNoServers          = errors.New("no redis servers configured")
	ErrMissingMasterName  = errors.New("sentinel mode requires a master name")
	ErrClusterDatabase    = errors.New("redis cluster mode doesn't support database selection")
	ErrClientNotAvailable = errors.New("redis client initialization failed: unexpected state")
)

const (
	DefaultPoolSize        = 100
	DefaultMinIdleConns    = 5
	DefaultMaxIdleConns    = 10
	DefaultPoolTimeout     = 10 * time.Second
	DefaultTimeout         = 3 * time.Second
	DefaultConnMaxIdleTime = 60 * time.Second
)

type RedisConfig struct {
	Mode Mode

	// Servers is the ordered endpoint list in host:port form. In standalone
	// mode it is the failover order, in sentinel mode the sentinel
	// addresses and in cluster mode the seed nodes.
	Servers    []string
	MasterName string

	Username   string
	Password   string
	Database   int
	TLSEnabled bool

	PoolSize        int
	MinIdleConns    int
	MaxIdleConns    int
	PoolTimeout     time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ConnMaxIdleTime time.Duration

	// DevClusterHostOverride when true, forces cluster node discovery to use the
	// host of the first seed node instead of discovered IPs. This is a
	// development-only setting for Docker environments where nodes announce
	// unreachable IPs.
	// DO NOT use in production.
	DevClusterHostOverride bool
}

// Validate checks that the configuration is usable for its mode.
func (c *RedisConfig) Validate() error {
	if c.Mode < ModeStandalone || c.Mode > ModeCluster {
		return fmt.Errorf("%w: %d", ErrInvalidMode, c.Mode)
	}
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	switch c.Mode {
	case ModeSentinel:
		if strings.TrimSpace(c.MasterName) == "" {
			return ErrMissingMasterName
		}
	case ModeCluster:
		if c.Database != 0 {
			return ErrClusterDatabase
		}
	}
	return nil
}

func (c *RedisConfig) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return DefaultPoolSize
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
