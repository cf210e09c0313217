// Package confidence extracts recommendations from a generated narrative
// and labels each with how well the run's own data backs it.
package confidence

import (
	"regexp"
	"strings"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// metricKeywords are the metric references the scorer recognizes in
// recommendation text.
var metricKeywords = map[string]string{
	"ctr":                  "ctr",
	"click-through":        "ctr",
	"cvr":                  "cvr",
	"conversion":           "cvr",
	"cpa":                  "cpa",
	"cost per acquisition": "cpa",
	"cpc":                  "cpc",
	"roas":                 "roas",
	"return on ad spend":   "roas",
	"spend":                "spend",
	"revenue":              "revenue",
	"impression":           "impressions",
}

// actionCues mark a sentence as a recommendation even without list markers.
var actionCues = []string{
	"recommend", "consider", "increase", "decrease", "reduce",
	"pause", "shift", "scale", "reallocate", "test", "expand",
}

var listItemRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)

// Scorer labels recommendations against the run's computed metrics and its
// external knowledge evidence. Confidence is never raised above medium when
// no external evidence exists for the run.
type Scorer struct {
	metrics   model.SharedMetrics
	knowledge []model.KnowledgeChunk
}

// NewScorer creates a scorer for one run.
func NewScorer(metrics model.SharedMetrics, knowledge []model.KnowledgeChunk) *Scorer {
	return &Scorer{metrics: metrics, knowledge: knowledge}
}

// Score extracts recommendation lines from the narrative and labels each.
//
//   - high: the line references a metric consistent with the computed
//     metrics AND the run retrieved external knowledge backing it.
//   - medium: a consistent metric reference without external evidence.
//   - low: everything else.
func (s *Scorer) Score(narrative string) []model.ScoredRecommendation {
	lines := extractRecommendations(narrative)
	if len(lines) == 0 {
		return nil
	}

	out := make([]model.ScoredRecommendation, 0, len(lines))
	for _, line := range lines {
		rec := model.ScoredRecommendation{Text: line, Confidence: model.ConfidenceLow}

		metric, entity, consistent := s.metricReference(line)
		if consistent {
			rec.Confidence = model.ConfidenceMedium
			rec.Evidence = append(rec.Evidence, "metrics:"+metric)
			if entity != "" {
				rec.Evidence = append(rec.Evidence, "dataset:"+entity)
			}

			if backing := s.knowledgeBacking(line, metric); backing != "" {
				rec.Confidence = model.ConfidenceHigh
				rec.Evidence = append(rec.Evidence, backing)
			}
		}

		out = append(out, rec)
	}
	return out
}

// extractRecommendations pulls list items and action-cue sentences out of
// the narrative, preserving order.
func extractRecommendations(narrative string) []string {
	var out []string
	for _, raw := range strings.Split(narrative, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if listItemRe.MatchString(line) {
			out = append(out, strings.TrimSpace(listItemRe.ReplaceAllString(line, "")))
			continue
		}
		lower := strings.ToLower(line)
		for _, cue := range actionCues {
			if strings.Contains(lower, cue) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}

// metricReference reports whether the line names a metric the run actually
// computed. When the line also names a campaign or platform from the
// dataset, that entity is returned as supporting evidence.
func (s *Scorer) metricReference(line string) (metric, entity string, consistent bool) {
	lower := strings.ToLower(line)

	for keyword, canonical := range metricKeywords {
		if strings.Contains(lower, keyword) {
			metric = canonical
			break
		}
	}
	if metric == "" {
		return "", "", false
	}

	for name := range s.metrics.ByCampaign {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return metric, name, true
		}
	}
	for name := range s.metrics.ByPlatform {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return metric, name, true
		}
	}

	// An account-level metric reference with no named entity is fine.
	return metric, "", true
}

// knowledgeBacking returns an evidence reference when the run's retrieved
// knowledge plausibly supports the line, or empty when there is none.
// Absent knowledge always yields empty — confidence can only be lowered by
// missing evidence, never invented.
func (s *Scorer) knowledgeBacking(line, metric string) string {
	if len(s.knowledge) == 0 {
		return ""
	}
	lower := strings.ToLower(line)
	for _, chunk := range s.knowledge {
		text := strings.ToLower(chunk.Title + " " + chunk.Text)
		if text == "" {
			continue
		}
		if strings.Contains(text, metric) || overlaps(lower, text) {
			if chunk.Title != "" {
				return "knowledge:" + chunk.Title
			}
			return "knowledge:" + chunk.Source
		}
	}
	return ""
}

// overlaps is a crude lexical check: the two texts share at least three
// words of five or more characters.
func overlaps(a, b string) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if len(w) >= 5 {
			words[strings.Trim(w, ".,:;()")] = struct{}{}
		}
	}
	matched := 0
	for _, w := range strings.Fields(b) {
		if _, ok := words[strings.Trim(w, ".,:;()")]; ok {
			matched++
			if matched >= 3 {
				return true
			}
		}
	}
	return false
}
