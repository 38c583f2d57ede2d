package sanitize

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRedactsContentFields(t *testing.T) {
	in := map[string]any{
		"snippet":  "secret page text",
		"raw_html": "<html>...</html>",
		"body":     "full body",
		"query_id": "climate-001",
		"rank":     3,
	}

	got, ok := Value(in).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "[redacted]", got["snippet"])
	assert.Equal(t, "[redacted]", got["raw_html"])
	assert.Equal(t, "[redacted]", got["body"])
	assert.Equal(t, "climate-001", got["query_id"])
	assert.Equal(t, 3, got["rank"])
}

func TestValueMatchesKeysAcrossNamingStyles(t *testing.T) {
	for _, key := range []string{"rawHtmlPath", "raw_html_path", "RAW-HTML-PATH"} {
		got := Field(key, "/data/html/abc.html")
		assert.Equal(t, "[redacted]", got, "key %q", key)
	}
}

func TestValueStripsURLFields(t *testing.T) {
	in := map[string]any{
		"url":            "https://example.org/article?utm_source=x&sessionid=42#top",
		"normalized_url": "https://example.org/article",
		"link":           "not a url at all",
		"uri":            "/relative/path?q=1",
	}

	got := Value(in).(map[string]any)

	assert.Equal(t, "https://example.org/article", got["url"])
	assert.Equal(t, "https://example.org/article", got["normalized_url"])
	assert.Equal(t, "not a url at all", got["link"])
	assert.Equal(t, "/relative/path?q=1", got["uri"])
}

func TestValueReducesErrors(t *testing.T) {
	base := errors.New("connection refused")

	got := Value(base).(map[string]any)
	assert.Equal(t, "*errors.errorString", got["name"])
	assert.Equal(t, "connection refused", got["message"])

	wrapped := fmt.Errorf("ingest: scan directory: %w", base)
	got = Value(wrapped).(map[string]any)
	assert.Equal(t, "*fmt.wrapError", got["name"])
	assert.Equal(t, "ingest: scan directory: connection refused", got["message"])
}

func TestValueRecursesNestedContainers(t *testing.T) {
	in := map[string]any{
		"results": []any{
			map[string]any{"url": "https://a.example/p?x=1", "snippet": "hidden"},
			map[string]any{"url": "https://b.example/q#frag", "title": "kept"},
		},
	}

	got := Value(in).(map[string]any)
	results := got["results"].([]any)

	first := results[0].(map[string]any)
	assert.Equal(t, "https://a.example/p", first["url"])
	assert.Equal(t, "[redacted]", first["snippet"])

	second := results[1].(map[string]any)
	assert.Equal(t, "https://b.example/q", second["url"])
	assert.Equal(t, "kept", second["title"])
}

func TestValueWalksStructsByJSONTag(t *testing.T) {
	type record struct {
		QueryID string `json:"query_id"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
		skipped string
	}

	got := Value(record{QueryID: "q1", Snippet: "text", URL: "https://e.org/a?b=c", skipped: "x"}).(map[string]any)

	assert.Equal(t, "q1", got["query_id"])
	assert.Equal(t, "[redacted]", got["snippet"])
	assert.Equal(t, "https://e.org/a", got["url"])
	assert.NotContains(t, got, "skipped")
}

func TestValueCutsCycles(t *testing.T) {
	m := map[string]any{"query_id": "q1"}
	m["self"] = m

	got := Value(m).(map[string]any)
	assert.Equal(t, "q1", got["query_id"])
	assert.Equal(t, "[cycle]", got["self"])

	type node struct {
		Name string `json:"name"`
		Next *node  `json:"next"`
	}
	a := &node{Name: "a"}
	a.Next = a

	walked := Value(a).(map[string]any)
	assert.Equal(t, "a", walked["name"])
	assert.Equal(t, "[cycle]", walked["next"])
}

func TestValuePassesScalarsThrough(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, 42, Value(42))
	assert.Equal(t, true, Value(true))
	assert.Equal(t, 1.5, Value(1.5))
	assert.Equal(t, ts, Value(ts))
	assert.Nil(t, Value(nil))
}

func TestStripURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"query and fragment", "https://example.org/a/b?q=1&r=2#sec", "https://example.org/a/b"},
		{"no query", "https://example.org/a", "https://example.org/a"},
		{"keeps port", "http://example.org:8080/x?y=1", "http://example.org:8080/x"},
		{"relative unchanged", "/a/b?q=1", "/a/b?q=1"},
		{"opaque unchanged", "mailto:someone@example.org", "mailto:someone@example.org"},
		{"garbage unchanged", "::::not-a-url", "::::not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripURL(tt.in))
		})
	}
}
