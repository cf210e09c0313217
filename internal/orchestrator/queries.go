package orchestrator

import (
	"fmt"
	"sort"

	"github.com/sells-group/adinsights-cli/internal/aggregate"
	"github.com/sells-group/adinsights-cli/internal/model"
)

// benchmarkQueries derives the knowledge queries for a run from its
// findings: one per platform seen in the dataset plus one per distinct
// metric the findings flagged. Deterministic order so equivalent runs
// fingerprint to the same cache keys.
func benchmarkQueries(ds *model.Dataset, metrics model.SharedMetrics, merged aggregate.Merged, limit int) []string {
	var queries []string

	platforms := make([]string, 0, len(metrics.ByPlatform))
	for p := range metrics.ByPlatform {
		if p != "" {
			platforms = append(platforms, p)
		}
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		queries = append(queries, fmt.Sprintf("industry average CTR and ROAS for %s advertising", p))
	}

	metricSet := make(map[string]struct{})
	for _, f := range append(append([]model.Finding{}, merged.Opportunities...), merged.Risks...) {
		if f.Metric != "" {
			metricSet[f.Metric] = struct{}{}
		}
	}
	flagged := make([]string, 0, len(metricSet))
	for m := range metricSet {
		flagged = append(flagged, m)
	}
	sort.Strings(flagged)
	for _, m := range flagged {
		queries = append(queries, fmt.Sprintf("what is a good %s benchmark for paid digital advertising", m))
	}

	if industry, ok := ds.Context["industry"].(string); ok && industry != "" {
		queries = append(queries, fmt.Sprintf("advertising performance benchmarks for the %s industry", industry))
	}

	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}
