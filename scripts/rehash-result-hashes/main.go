// Command rehash-result-hashes is a one-time maintenance script that
// recomputes the content hash for all search results in the warehouse. Run
// this after fixing the timestamp precision bug (hashes used to drop
// sub-second precision, so re-collected results with nanosecond timestamps
// no longer deduplicated against their stored rows).
//
// Usage:
//
//	TRUTHLAYER_STORAGE_DIR=data/warehouse go run ./scripts/rehash-result-hashes
//
// The script opens the warehouse, recomputes each result's hash using the
// current formula (sha256 over url|title|snippet|timestamp at nanosecond
// precision), and rewrites any rows where the stored hash differs. It prints
// the number of rows fixed and exits.
//
// Safe to run multiple times — it's idempotent. Once all hashes match, it
// reports 0 updates and exits immediately.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	dir := os.Getenv("TRUTHLAYER_STORAGE_DIR")
	if dir == "" {
		dir = "data/warehouse"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := storage.OpenColumnar(dir)
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer store.Close()

	scanned, stale, err := store.RehashSearchResults(ctx)
	if err != nil {
		return fmt.Errorf("rehash: %w", err)
	}

	fmt.Printf("scanned %d results, %d have stale hashes\n", scanned, stale)

	if stale == 0 {
		fmt.Println("nothing to do")
		return nil
	}

	fmt.Printf("updated %d stale hashes\n", stale)
	return nil
}
