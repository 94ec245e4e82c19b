package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewSelectsFormatByEnvironment(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})
	log.Info("started", "port", 8080)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "{"), "production logs should be JSON: %s", line)
	assert.Contains(t, line, `"port":8080`)
}

func TestPrettyHandlerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h)

	log.Info("request complete", "status", 200)

	line := buf.String()
	assert.Contains(t, line, "INF")
	assert.Contains(t, line, "request complete")
	assert.Contains(t, line, "status=200")
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	log := slog.New(h)

	log.Info("quiet")
	require.Zero(t, buf.Len())

	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestPrettyHandlerQualifiesGroupedKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	log := slog.New(h).With("request_id", "abc").WithGroup("db")

	log.Info("query done", "rows", 3)

	line := buf.String()
	assert.Contains(t, line, "request_id=abc")
	assert.Contains(t, line, "db.rows=3")
	assert.NotContains(t, line, "db.request_id")
}
