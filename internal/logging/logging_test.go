package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_WritesLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	l.Debug(ctx, "dbg")
	l.Info(ctx, "hello", "user_id", "u1")
	l.Warn(ctx, "careful")
	l.Error(ctx, "broken", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"msg":"broken"`)
}

func TestSlogLogger_WithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	child := l.With("component", "session")
	child.Info(context.Background(), "ready")

	assert.Contains(t, buf.String(), `"component":"session"`)
}

func TestZerologLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(&buf, "warn", false)
	ctx := context.Background()

	l.Info(ctx, "hidden")
	l.Warn(ctx, "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestZerologLogger_KeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(&buf, "info", false)

	l.With("component", "cli").Info(context.Background(), "started", "mode", "online")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "started", rec["message"])
	assert.Equal(t, "cli", rec["component"])
	assert.Equal(t, "online", rec["mode"])
}
