// Package analysis holds the built-in analysis tasks. Each task is a pure
// function over the dataset and shared metrics; tasks never perform I/O and
// never see each other's output.
package analysis

import (
	"sort"

	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/schedule"
)

// Tasks returns the standard task set in declaration order.
func Tasks() []schedule.Task {
	return []schedule.Task{
		{Name: "funnel", Run: runFunnel},
		{Name: "roas", Run: runROAS},
		{Name: "audience", Run: runAudience},
		{Name: "tactics", Run: runTactics},
	}
}

// ratio guards against division by zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// sortedKeys returns map keys in stable order so findings are deterministic
// regardless of map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// contextFloat reads a numeric target from the dataset's business context.
func contextFloat(ds *model.Dataset, key string) (float64, bool) {
	if ds == nil || ds.Context == nil {
		return 0, false
	}
	switch v := ds.Context[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
