package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/adinsights-cli/internal/aggregate"
	"github.com/sells-group/adinsights-cli/internal/model"
)

const narrativeSystemPrompt = "You are a senior advertising performance analyst. " +
	"Write for a marketing lead who needs decisions, not a data dump. " +
	"Ground every claim in the figures you are given and format recommendations as a numbered list."

// briefPrompt asks for the executive summary.
func briefPrompt(ds *model.Dataset, metrics model.SharedMetrics, merged aggregate.Merged) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the advertising performance of dataset %q in at most four sentences.\n\n", ds.Label)
	writeMetrics(&b, metrics)
	writeFindings(&b, merged)
	return b.String()
}

// detailedPrompt asks for the full narrative with recommendations, backed
// by the retrieved benchmark knowledge.
func detailedPrompt(ds *model.Dataset, metrics model.SharedMetrics, merged aggregate.Merged, chunks []model.KnowledgeChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a detailed performance analysis of dataset %q. ", ds.Label)
	b.WriteString("Cover the funnel, spend efficiency, and the specific findings below, then close with a numbered list of recommendations.\n\n")
	writeMetrics(&b, metrics)
	writeFindings(&b, merged)

	if len(chunks) > 0 {
		b.WriteString("\nIndustry benchmarks for context:\n")
		for _, c := range chunks {
			if c.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", c.Title, c.Text)
		}
	}
	return b.String()
}

func writeMetrics(b *strings.Builder, m model.SharedMetrics) {
	fmt.Fprintf(b, "Account totals: %d impressions, %d clicks, %d conversions, $%.2f spend, $%.2f revenue.\n",
		m.TotalImpressions, m.TotalClicks, m.TotalConversions, m.TotalSpendUSD, m.TotalRevenueUSD)
	fmt.Fprintf(b, "Account rates: CTR %.2f%%, CVR %.2f%%, CPA $%.2f, CPC $%.2f, ROAS %.2f.\n",
		m.CTR*100, m.CVR*100, m.CPA, m.CPC, m.ROAS)

	platforms := make([]string, 0, len(m.ByPlatform))
	for p := range m.ByPlatform {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		pm := m.ByPlatform[p]
		fmt.Fprintf(b, "Platform %s: CTR %.2f%%, ROAS %.2f on $%.2f spend.\n", p, pm.CTR*100, pm.ROAS, pm.SpendUSD)
	}
}

func writeFindings(b *strings.Builder, merged aggregate.Merged) {
	if len(merged.Opportunities) > 0 {
		b.WriteString("\nOpportunities:\n")
		for _, f := range merged.Opportunities {
			fmt.Fprintf(b, "- %s\n", f.Detail)
		}
	}
	if len(merged.Risks) > 0 {
		b.WriteString("\nRisks:\n")
		for _, f := range merged.Risks {
			fmt.Fprintf(b, "- %s\n", f.Detail)
		}
	}
}

// degradedNarrative is the placeholder written when every provider failed.
// It states the computed facts without any generated interpretation.
func degradedNarrative(metrics model.SharedMetrics, merged aggregate.Merged) model.Narrative {
	var b strings.Builder
	b.WriteString("Narrative generation was unavailable for this run. Computed results follow.\n\n")
	writeMetrics(&b, metrics)
	writeFindings(&b, merged)
	text := b.String()
	return model.Narrative{
		Brief:    fallbackBrief(metrics),
		Detailed: text,
		Degraded: true,
	}
}

func fallbackBrief(metrics model.SharedMetrics) string {
	return fmt.Sprintf("Spend of $%.2f produced $%.2f revenue (ROAS %.2f) at a CTR of %.2f%%.",
		metrics.TotalSpendUSD, metrics.TotalRevenueUSD, metrics.ROAS, metrics.CTR*100)
}
