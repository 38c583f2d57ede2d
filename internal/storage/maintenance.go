package storage

import (
	"context"
	"time"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// RehashSearchResults recomputes the content hash of every stored search
// result and rewrites rows whose stored hash no longer matches the current
// formula. It returns the number of rows scanned and the number rewritten.
//
// Not part of the Store contract; this is the maintenance entry point behind
// scripts/rehash-result-hashes and only exists on the persistent backend.
func (c *Columnar) RehashSearchResults(ctx context.Context) (scanned, stale int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, 0, ErrClosed
	}

	now := time.Now().UTC()
	for id, r := range c.data.searchResults {
		scanned++
		hash := model.ResultHash(r.URL, r.Title, r.Snippet, r.Timestamp)
		if r.Hash == hash {
			continue
		}
		r.Hash = hash
		r.UpdatedAt = now
		c.data.searchResults[id] = r
		stale++
	}
	if stale == 0 {
		return scanned, 0, nil
	}
	return scanned, stale, flushTable(c.dir, tableSearchResults, c.data.searchResults, noErr(toSearchResultRow))
}
