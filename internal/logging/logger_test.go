package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/logging"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zap.AtomicLevel
	}{
		{input: "debug", want: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{input: "WARN", want: zap.NewAtomicLevelAt(zap.WarnLevel)},
		{input: "error", want: zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{input: "", want: zap.NewAtomicLevelAt(zap.InfoLevel)},
		{input: "verbose", want: zap.NewAtomicLevelAt(zap.InfoLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want.Level(), logging.ParseLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := logging.NewLogger(logging.WithLogLevel("debug"), logging.WithEncoding("console"))
	require.NoError(t, err)
	require.NotNil(t, logger.Logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewNopLogger(t *testing.T) {
	logger := logging.NewNopLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Error("discarded", zap.String("key", "value"))
	})
}
