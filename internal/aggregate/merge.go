package aggregate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// DefaultKeyFields is the composite identity for opportunity/risk findings.
var DefaultKeyFields = []string{"type", "campaign", "platform"}

// Merged is the aggregator's view over all task results.
type Merged struct {
	Opportunities []model.Finding
	Risks         []model.Finding
	Errors        []model.ErrorInfo
}

// Merge combines task outputs in stable task-name order, extracts their
// structured findings, dedupes them by composite key, and truncates each
// list to topN distinct entries. Task errors are carried into the report
// as structured records, never dropped.
func Merge(results map[string]model.TaskResult, topN int) Merged {
	var m Merged

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	// Stable order keeps first-seen dedup independent of completion order.
	sort.Strings(names)

	for _, name := range names {
		res := results[name]
		if res.Err != nil {
			m.Errors = append(m.Errors, *res.Err)
			continue
		}
		m.Opportunities = append(m.Opportunities, extractFindings(res.Payload, "opportunities")...)
		m.Risks = append(m.Risks, extractFindings(res.Payload, "risks")...)
	}

	before := len(m.Opportunities) + len(m.Risks)
	m.Opportunities = TopN(DedupeFindings(m.Opportunities, DefaultKeyFields), topN)
	m.Risks = TopN(DedupeFindings(m.Risks, DefaultKeyFields), topN)

	zap.L().Debug("aggregate: merged task findings",
		zap.Int("tasks", len(results)),
		zap.Int("raw_findings", before),
		zap.Int("opportunities", len(m.Opportunities)),
		zap.Int("risks", len(m.Risks)),
	)

	return m
}

func extractFindings(payload map[string]any, key string) []model.Finding {
	if payload == nil {
		return nil
	}
	switch v := payload[key].(type) {
	case []model.Finding:
		return v
	case []any:
		var out []model.Finding
		for _, e := range v {
			if f, ok := e.(model.Finding); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}
