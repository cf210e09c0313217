// Package aggregate merges analysis task outputs into report-shaped lists,
// removing duplicate findings by composite key.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// DedupeFindings removes findings whose composite key over keyFields matches
// an earlier entry. First-seen order is preserved; later duplicates are
// dropped silently — duplication across tasks is expected, not exceptional.
func DedupeFindings(findings []model.Finding, keyFields []string) []model.Finding {
	if len(findings) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		key := findingKey(f, keyFields)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// TopN truncates a deduplicated list to its first n entries. Truncation
// happens after dedup so the bound reflects distinct findings.
func TopN(findings []model.Finding, n int) []model.Finding {
	if n <= 0 || len(findings) <= n {
		return findings
	}
	return findings[:n]
}

// findingKey builds the composite identity from the named fields.
func findingKey(f model.Finding, keyFields []string) string {
	parts := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		var v any
		switch field {
		case "type":
			v = f.Type
		case "campaign":
			v = f.Campaign
		case "platform":
			v = f.Platform
		case "metric":
			v = f.Metric
		case "detail":
			v = f.Detail
		case "tags":
			v = f.Tags
		case "meta":
			v = f.Meta
		default:
			if f.Meta != nil {
				v = f.Meta[field]
			}
		}
		parts = append(parts, CanonicalValue(v))
	}
	return strings.Join(parts, "\x1f")
}

// CanonicalValue renders a value into a stable, hashable string form.
// Lists become ordered tuples; maps become sorted key/value tuples; nested
// collections recurse. This lets non-hashable field values participate in
// key equality.
func CanonicalValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return "(" + strings.Join(t, ",") + ")"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = CanonicalValue(e)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + CanonicalValue(t[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprintf("%v", t)
	}
}
