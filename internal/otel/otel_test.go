package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureHTTPEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"bare host", "collector:4318", "http://collector:4318/v1/traces"},
		{"with scheme", "https://collector:4318", "https://collector:4318/v1/traces"},
		{"trailing slash", "http://collector:4318/", "http://collector:4318/v1/traces"},
		{"full url", "http://collector:4318/v1/traces", "http://collector:4318/v1/traces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ensureHTTPEndpoint("traces", tt.endpoint))
		})
	}
}

func TestSetupOTelSDK_NilConfig(t *testing.T) {
	t.Parallel()

	shutdown, err := SetupOTelSDK(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupOTelSDK_NoSignals(t *testing.T) {
	t.Parallel()

	shutdown, err := SetupOTelSDK(context.Background(), &OpenTelemetryConfig{
		ServiceName: "ucc-cache-test",
		Protocol:    ProtocolGRPC,
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
