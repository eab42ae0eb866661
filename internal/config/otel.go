package config

import (
	"github.com/szhtp/ucc-cache/internal/otel"
)

type OpenTelemetryConfig struct {
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Protocol    string `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL"`
	Traces      bool   `yaml:"traces" env:"OTEL_TRACES_ENABLED"`
	Metrics     bool   `yaml:"metrics" env:"OTEL_METRICS_ENABLED"`
}

// Enabled reports whether any signal should be exported.
func (c *OpenTelemetryConfig) Enabled() bool {
	return c != nil && c.ServiceName != "" && (c.Traces || c.Metrics)
}

func (c *OpenTelemetryConfig) ToConfig() *otel.OpenTelemetryConfig {
	if !c.Enabled() {
		return nil
	}

	return &otel.OpenTelemetryConfig{
		ServiceName: c.ServiceName,
		Endpoint:    c.Endpoint,
		Protocol:    c.Protocol,
		Traces:      c.Traces,
		Metrics:     c.Metrics,
	}
}
