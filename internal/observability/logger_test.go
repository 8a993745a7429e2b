package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContextAddsIDs(t *testing.T) {
	prev := logger
	t.Cleanup(func() { logger = prev })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})))

	ctx := WithSessionID(WithRequestID(context.Background(), "r1"), "s1")
	LoggerFromContext(ctx).Info("hello", "stage", "education")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "r1", line["request_id"])
	assert.Equal(t, "s1", line["session_id"])
	assert.Equal(t, "education", line["stage"])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, level.Level())
	SetLevel("WARN")
	assert.Equal(t, slog.LevelWarn, level.Level())
	SetLevel("nonsense")
	assert.Equal(t, slog.LevelInfo, level.Level())
}
