package observability_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/daysync/pkg/observability"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevelInfo,
		Format:      observability.LogFormatText,
		Output:      &buf,
		ServiceName: "daysync",
	})

	logger.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "service=daysync")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:          observability.LogLevelInfo,
		Format:         observability.LogFormatJSON,
		Output:         &buf,
		ServiceName:    "daysync",
		ServiceVersion: "1.2.3",
	})

	logger.Info("hello", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "daysync", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelWarn,
		Format: observability.LogFormatText,
		Output: &buf,
	})

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "kept")
}

func TestNewLogger_WithAttrsKeepsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevelInfo,
		Format:      observability.LogFormatText,
		Output:      &buf,
		ServiceName: "daysync",
	})

	logger.With(slog.String("component", "sync")).Info("msg")

	out := buf.String()
	assert.Contains(t, out, "component=sync")
	assert.Contains(t, out, "service=daysync")
}

func TestLoggerFromEnv_ProductionDefaultsToJSON(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	logger := observability.LoggerFromEnv()
	assert.NotNil(t, logger)
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelInfo,
		Format: observability.LogFormatText,
		Output: &buf,
	})

	observability.LogOperation(logger, "pending-sync", "queued", 3).Info("start")

	out := buf.String()
	assert.Contains(t, out, "operation=pending-sync")
	assert.True(t, strings.Contains(out, "queued=3"))
}
