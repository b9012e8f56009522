package logutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewAcceptsEveryDocumentedLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(lvl)
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("trace")
	require.Error(t, err)
}

func TestNewHonorsConfiguredLevel(t *testing.T) {
	logger, err := New("warn")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel), "info must be suppressed when the level is warn")
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
