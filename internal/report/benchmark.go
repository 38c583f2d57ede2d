package report

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// BenchmarkQuery is one entry of the static benchmark metadata file mapping
// query ids to human-readable labels.
type BenchmarkQuery struct {
	ID    string   `json:"id"`
	Query string   `json:"query"`
	Topic string   `json:"topic"`
	Tags  []string `json:"tags"`
}

// loadBenchmarks reads the metadata file, trying the configured path and
// then the same path one directory up. A missing or malformed file yields an
// empty map; report rows fall back to raw query ids.
func (g *Generator) loadBenchmarks() map[string]BenchmarkQuery {
	candidates := []string{g.benchmarkPath}
	if !filepath.IsAbs(g.benchmarkPath) {
		candidates = append(candidates, filepath.Join("..", g.benchmarkPath))
	}
	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var list []BenchmarkQuery
		if err := json.Unmarshal(raw, &list); err != nil {
			g.logger.Warn("benchmark metadata file is malformed", "file", path, "error", err)
			return nil
		}
		byID := make(map[string]BenchmarkQuery, len(list))
		for _, q := range list {
			byID[q.ID] = q
		}
		return byID
	}
	return nil
}
