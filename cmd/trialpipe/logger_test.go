package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		enabled       zapcore.Level
		disabled      zapcore.Level
	}{
		{"info", "json", zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", "console", zapcore.DebugLevel, zapcore.Level(-2)},
		{"warn", "", zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.format)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.disabled))
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := newLogger("info", "xml")
	assert.Error(t, err)

	_, err = newLogger("loud", "json")
	assert.Error(t, err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "ingest", "validate", "serve", "classify"} {
		assert.Contains(t, names, want)
	}
}
