package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "warn message", lines[0]["msg"])
	assert.Equal(t, "error message", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLoggerDebugEnabled(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)
	logger.Debug(context.Background(), "visible")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "DEBUG", lines[0]["level"])
}

func TestLoggerWithFieldsAndComponent(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	child := logger.WithComponent("preset").With("dir", "/tmp/presets")
	child.Info(context.Background(), "loaded", "count", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "preset", lines[0]["component"])
	assert.Equal(t, "/tmp/presets", lines[0]["dir"])
	assert.Equal(t, float64(3), lines[0]["count"])
}

func TestLoggerIgnoresOddFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	logger.Info(context.Background(), "odd", "key")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, present := lines[0]["key"]
	assert.False(t, present)
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Debug(context.Background(), "x")
		l.With("a", 1).WithComponent("c").Error(context.Background(), errors.New("e"), "y")
	})
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "https://dav.example.com/files", "https://dav.example.com/files"},
		{"password", "password=hunter2", "[REDACTED]"},
		{"token", "Bearer token abc", "[REDACTED]"},
		{"long", strings.Repeat("a", 1200), strings.Repeat("a", 1000) + "...[TRUNCATED]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}
}

func TestPerfLogger(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)
	op := StartOperation(logger, "reload")
	op.End(context.Background(), "presets", 2)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "reload", lines[0]["operation"])
	assert.Contains(t, lines[0], "duration_ms")
}

func TestPerfLoggerEndWithError(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	op := StartOperation(logger, "webdav_get")
	op.EndWithError(context.Background(), errors.New("HTTP 404 Not Found"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "Operation failed", lines[0]["msg"])
	assert.Equal(t, "HTTP 404 Not Found", lines[0]["error"])
	assert.Equal(t, "webdav_get", lines[0]["operation"])
}
