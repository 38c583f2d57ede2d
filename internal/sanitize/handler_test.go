package sanitize

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerSanitizesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("result stored",
		"query_id", "climate-001",
		"url", "https://example.org/story?session=abc#body",
		"snippet", "never log this",
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "result stored", line["msg"])
	assert.Equal(t, "climate-001", line["query_id"])
	assert.Equal(t, "https://example.org/story", line["url"])
	assert.Equal(t, "[redacted]", line["snippet"])
}

func TestHandlerSanitizesGroupsAndWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil))).
		With("raw_html_path", "/data/html/x.html")

	logger.Info("stage done", slog.Group("result",
		slog.String("link", "https://a.example/p?tracking=1"),
		slog.Int("rank", 2),
	))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "[redacted]", line["raw_html_path"])
	group := line["result"].(map[string]any)
	assert.Equal(t, "https://a.example/p", group["link"])
	assert.Equal(t, float64(2), group["rank"])
}

func TestHandlerReducesErrorValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Error("stage failed", "error", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	errVal := line["error"].(map[string]any)
	assert.Equal(t, "*errors.errorString", errVal["name"])
	assert.Equal(t, "boom", errVal["message"])
}

func TestHandlerPreservesLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewHandler(inner))

	logger.Info("ignored")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Positive(t, buf.Len())
}
