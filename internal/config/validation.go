package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingRedis        = errors.New("redis configuration is required")
	ErrMissingRedisServers = errors.New("at least one redis server is required")
	ErrInvalidRedisMode    = errors.New("invalid redis mode: must be standalone, sentinel or cluster")
	ErrInvalidRedisPort    = errors.New("invalid redis port")
	ErrInvalidRedisConfig  = errors.New("invalid redis configuration")
	ErrInvalidLogLevel     = errors.New("invalid log level: must be debug, info, warn, error or fatal")
	ErrInvalidLogFormat    = errors.New("invalid log format: must be json or console")
	ErrInvalidOTelProtocol = errors.New("invalid opentelemetry protocol: must be grpc or http")
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	if err := c.validateOpenTelemetry(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

// validateRedis validates the Redis configuration
func (c *Config) validateRedis() error {
	if c.Redis == nil {
		return ErrMissingRedis
	}
	if len(c.Redis.Addrs()) == 0 {
		return ErrMissingRedisServers
	}
	for _, port := range c.Redis.Ports {
		n, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("%w: %q", ErrInvalidRedisPort, port)
		}
	}

	redisConfig, err := c.Redis.ToConfig()
	if err != nil {
		return err
	}
	if err := redisConfig.Validate(); err != nil {
		return errors.Join(ErrInvalidRedisConfig, err)
	}
	return nil
}

// validateOpenTelemetry validates the exporter protocol when export is enabled
func (c *Config) validateOpenTelemetry() error {
	if !c.OpenTelemetry.Enabled() {
		return nil
	}
	switch c.OpenTelemetry.Protocol {
	case "grpc", "http":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidOTelProtocol, c.OpenTelemetry.Protocol)
}
