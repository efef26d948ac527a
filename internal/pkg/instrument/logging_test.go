package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T, maskFields ...string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	return slog.New(NewHandler(newJSONHandler(&buf, slog.LevelDebug), "gonotify", maskFields)), &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestHandler_AddsContext(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger(t)
	ctx := SetCorrelationID(context.Background(), "evt-42")

	logger.InfoContext(ctx, "notification created", "user_id", 7)

	line := lastLine(t, buf)
	assert.Equal(t, "evt-42", line["correlation_id"])
	assert.Equal(t, "gonotify", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go:")
	assert.NotContains(t, line, "trace_id")
}

func TestHandler_Masks(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger(t, "Authorization", " token ")

	logger.With("authorization", "Bearer abc").Info("request",
		"payload", `{"token":"t","title":"Task Assigned"}`,
		"headers", map[string]string{"Token": "x", "Accept": "json"},
	)

	line := lastLine(t, buf)
	assert.Equal(t, masked, line["authorization"])
	assert.JSONEq(t, `{"token":"***","title":"Task Assigned"}`, line["payload"].(string))
	assert.Equal(t, map[string]any{"Token": masked, "Accept": "json"}, line["headers"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestMaskData(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"recipient": "a@b.c",
		"items":     []any{map[string]any{"Recipient": "x"}, "keep"},
	}

	out := MaskData(in, BuildMaskKeys([]string{"recipient"}))

	assert.Equal(t, map[string]any{
		"recipient": masked,
		"items":     []any{map[string]any{"Recipient": masked}, "keep"},
	}, out)
}
