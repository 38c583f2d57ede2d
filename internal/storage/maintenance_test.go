package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

func TestRehashSearchResultsRepairsStaleHashes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.OpenColumnar(dir)
	require.NoError(t, err)

	good := newResult("q1", "google", "https://a.example/1", 1, ts(5, 9))
	bad := newResult("q1", "bing", "https://a.example/2", 1, ts(5, 9))
	bad.Hash = strings.Repeat("0", 64)
	require.NoError(t, s.InsertSearchResults(ctx, []model.SearchResult{good, bad}))

	scanned, stale, err := s.RehashSearchResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scanned)
	assert.Equal(t, 1, stale)

	// Idempotent: a second pass finds nothing left to fix.
	scanned, stale, err = s.RehashSearchResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scanned)
	assert.Equal(t, 0, stale)
	require.NoError(t, s.Close())

	reopened, err := storage.OpenColumnar(dir)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.FetchPendingAnnotations(ctx, storage.PendingAnnotationQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, model.ResultHash(r.URL, r.Title, r.Snippet, r.Timestamp), r.Hash)
		if r.URL == bad.URL {
			assert.True(t, r.UpdatedAt.After(ts(5, 9)), "repaired row should carry a fresh updated_at")
		} else {
			assert.Equal(t, ts(5, 9), r.UpdatedAt, "untouched row should keep its updated_at")
		}
	}
}

func TestRehashSearchResultsClosed(t *testing.T) {
	s, err := storage.OpenColumnar(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.RehashSearchResults(context.Background())
	assert.ErrorIs(t, err, storage.ErrClosed)
}
