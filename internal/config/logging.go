package config

import (
	"go.uber.org/zap"
)

// LogConfigurationSummary returns zap fields with configuration summary, masking sensitive data
//
// When adding new configuration fields, update this function so they show up
// in the startup logs. Secrets are reported as "<field>_configured" booleans.
func (c *Config) LogConfigurationSummary() []zap.Field {
	fields := []zap.Field{
		// General
		zap.String("config_file_path", func() string {
			if c.configPath != "" {
				return c.configPath
			}
			return "none (using defaults and environment variables)"
		}()),
		zap.String("log_level", c.LogLevel),
		zap.String("log_format", c.LogFormat),
		zap.String("cache_prefix", c.Prefix),
	}

	if c.Redis != nil {
		fields = append(fields,
			zap.String("redis_mode", c.Redis.Mode),
			zap.Strings("redis_servers", c.Redis.Addrs()),
			zap.String("redis_master_name", c.Redis.MasterName),
			zap.Bool("redis_username_configured", c.Redis.Username != ""),
			zap.Bool("redis_password_configured", c.Redis.Password != ""),
			zap.Int("redis_database", c.Redis.Database),
			zap.Bool("redis_tls_enabled", c.Redis.TLSEnabled),
			zap.Int("redis_pool_size", c.Redis.PoolSize),
			zap.Int("redis_min_idle_conns", c.Redis.MinIdleConns),
			zap.Int("redis_max_idle_conns", c.Redis.MaxIdleConns),
			zap.Int("redis_pool_timeout_ms", c.Redis.PoolTimeoutMs),
			zap.Int("redis_timeout_ms", c.Redis.TimeoutMs),
		)
		if c.Redis.DevClusterHostOverride {
			fields = append(fields, zap.Bool("redis_dev_cluster_host_override", true))
		}
	}

	if c.OpenTelemetry != nil {
		fields = append(fields,
			zap.Bool("otel_enabled", c.OpenTelemetry.Enabled()),
			zap.String("otel_service_name", c.OpenTelemetry.ServiceName),
			zap.String("otel_endpoint", c.OpenTelemetry.Endpoint),
			zap.String("otel_protocol", c.OpenTelemetry.Protocol),
			zap.Bool("otel_traces", c.OpenTelemetry.Traces),
			zap.Bool("otel_metrics", c.OpenTelemetry.Metrics),
		)
	}

	return fields
}
