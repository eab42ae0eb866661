package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/szhtp/ucc-cache/internal/redis"
	"gopkg.in/yaml.v3"
)

const (
	Namespace   = "UCCCache"
	DefaultPort = "6379"
)

func getConfigLocations() []string {
	return []string{
		// Relative paths
		".env",
		".ucc-cache.yaml",
		"config/ucc-cache.yaml",
		"config/ucc-cache/config.yaml",
		"config/ucc-cache/.env",

		// Container-friendly absolute paths
		"/config/ucc-cache.yaml",
		"/config/ucc-cache/config.yaml",
		"/config/ucc-cache/.env",
	}
}

type Flags struct {
	Config string
}

type Config struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	// Prefix namespaces every cache key, so several applications can share
	// one Redis deployment.
	Prefix string `yaml:"prefix" env:"CACHE_PREFIX"`

	Redis         *RedisConfig         `yaml:"redis"`
	OpenTelemetry *OpenTelemetryConfig `yaml:"open_telemetry"`

	configPath string
}

func (c *Config) initDefaults() {
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.Prefix = "ucc_"
	c.Redis = &RedisConfig{
		Mode:          "standalone",
		Servers:       []string{"127.0.0.1"},
		Ports:         []string{DefaultPort},
		PoolSize:      redis.DefaultPoolSize,
		MinIdleConns:  redis.DefaultMinIdleConns,
		MaxIdleConns:  redis.DefaultMaxIdleConns,
		PoolTimeoutMs: int(redis.DefaultPoolTimeout / time.Millisecond),
		TimeoutMs:     int(redis.DefaultTimeout / time.Millisecond),
	}
	c.OpenTelemetry = &OpenTelemetryConfig{
		Protocol: "grpc",
	}
}

// ConfigFilePath returns the config file that was loaded, if any.
func (c *Config) ConfigFilePath() string {
	return c.configPath
}

func (c *Config) parseConfigFile(flagPath string, osInterface OSInterface) error {
	// Get config file path from flag or env
	configPath := flagPath
	if envPath := osInterface.Getenv("CONFIG"); envPath != "" {
		if configPath != "" && configPath != envPath {
			return fmt.Errorf("conflicting config paths: flag=%s env=%s", configPath, envPath)
		}
		configPath = envPath
	}

	// If no explicit config path, try default locations
	if configPath == "" {
		for _, loc := range getConfigLocations() {
			if _, err := osInterface.Stat(loc); err == nil {
				configPath = loc
				break
			}
		}
	}

	if configPath == "" {
		return nil
	}

	data, err := osInterface.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	c.configPath = configPath

	// Parse based on file extension
	if strings.HasSuffix(strings.ToLower(configPath), ".env") {
		envMap, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return fmt.Errorf("error loading .env file: %w", err)
		}
		if err := env.ParseWithOptions(c, env.Options{
			Environment: envMap,
		}); err != nil {
			return fmt.Errorf("error parsing .env file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("error parsing yaml config: %w", err)
		}
	}
	return nil
}

func (c *Config) parseEnvVariables(osInterface OSInterface) error {
	if err := env.ParseWithOptions(c, env.Options{
		Environment: env.ToMap(osInterface.Environ()),
	}); err != nil {
		return fmt.Errorf("error parsing environment variables: %w", err)
	}
	return nil
}

func Parse(flags Flags) (*Config, error) {
	return ParseWithOS(flags, defaultOS)
}

func ParseWithOS(flags Flags, osInterface OSInterface) (*Config, error) {
	config, err := ParseWithoutValidation(flags, osInterface)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseWithoutValidation loads defaults, the config file and environment
// variables, leaving validation to the caller. The CLI uses it to apply flag
// overrides before validating.
func ParseWithoutValidation(flags Flags, osInterface OSInterface) (*Config, error) {
	var config Config

	// Initialize defaults
	config.initDefaults()

	// Parse config file
	if err := config.parseConfigFile(flags.Config, osInterface); err != nil {
		return nil, err
	}

	// Parse environment variables (highest priority)
	if err := config.parseEnvVariables(osInterface); err != nil {
		return nil, err
	}

	return &config, nil
}

// RedisConfig is the user-facing Redis section. Servers may be host:port
// entries or bare hosts paired by index with Ports.
type RedisConfig struct {
	Mode                   string   `yaml:"mode" env:"REDIS_MODE"`
	Servers                []string `yaml:"servers" env:"REDIS_SERVERS" envSeparator:","`
	Ports                  []string `yaml:"ports" env:"REDIS_PORTS" envSeparator:","`
	MasterName             string   `yaml:"master_name" env:"REDIS_MASTER_NAME"`
	Username               string   `yaml:"username" env:"REDIS_USERNAME"`
	Password               string   `yaml:"password" env:"REDIS_PASSWORD"`
	Database               int      `yaml:"database" env:"REDIS_DATABASE"`
	TLSEnabled             bool     `yaml:"tls_enabled" env:"REDIS_TLS_ENABLED"`
	PoolSize               int      `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
	MinIdleConns           int      `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE"`
	MaxIdleConns           int      `yaml:"max_idle_conns" env:"REDIS_MAX_IDLE"`
	PoolTimeoutMs          int      `yaml:"pool_timeout_ms" env:"REDIS_POOL_TIMEOUT_MS"`
	TimeoutMs              int      `yaml:"timeout_ms" env:"REDIS_TIMEOUT_MS"`
	DevClusterHostOverride bool     `yaml:"dev_cluster_host_override" env:"REDIS_DEV_CLUSTER_HOST_OVERRIDE"`
}

// Addrs resolves Servers into host:port addresses. A bare host takes the
// port at the same index in Ports, the last listed port when Ports is
// shorter, or 6379 when no ports are configured.
func (c *RedisConfig) Addrs() []string {
	addrs := make([]string, 0, len(c.Servers))
	for i, server := range c.Servers {
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(server); err == nil {
			addrs = append(addrs, server)
			continue
		}
		addrs = append(addrs, net.JoinHostPort(server, c.portAt(i)))
	}
	return addrs
}

func (c *RedisConfig) portAt(i int) string {
	switch {
	case i < len(c.Ports):
		return strings.TrimSpace(c.Ports[i])
	case len(c.Ports) > 0:
		return strings.TrimSpace(c.Ports[len(c.Ports)-1])
	}
	return DefaultPort
}

func (c *RedisConfig) ToConfig() (*redis.RedisConfig, error) {
	mode, err := redis.ModeFromString(c.Mode)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisMode, err)
	}
	timeout := time.Duration(c.TimeoutMs) * time.Millisecond
	return &redis.RedisConfig{
		Mode:                   mode,
		Servers:                c.Addrs(),
		MasterName:             c.MasterName,
		Username:               c.Username,
		Password:               c.Password,
		Database:               c.Database,
		TLSEnabled:             c.TLSEnabled,
		PoolSize:               c.PoolSize,
		MinIdleConns:           c.MinIdleConns,
		MaxIdleConns:           c.MaxIdleConns,
		PoolTimeout:            time.Duration(c.PoolTimeoutMs) * time.Millisecond,
		DialTimeout:            timeout,
		ReadTimeout:            timeout,
		WriteTimeout:           timeout,
		DevClusterHostOverride: c.DevClusterHostOverride,
	}, nil
}
