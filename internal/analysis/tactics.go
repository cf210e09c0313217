package analysis

import (
	"context"
	"fmt"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// spendConcentrationLimit flags a single tactic absorbing most of the budget.
const spendConcentrationLimit = 0.6

// runTactics rolls records up by tactic: CPA efficiency per tactic plus a
// concentration check on how the budget is spread.
func runTactics(_ context.Context, ds *model.Dataset, metrics model.SharedMetrics) (map[string]any, error) {
	tactics := make(map[string]*segmentStats)
	for _, rec := range ds.Records {
		if rec.Tactic == "" {
			continue
		}
		s := tactics[rec.Tactic]
		if s == nil {
			s = &segmentStats{}
			tactics[rec.Tactic] = s
		}
		s.impressions += rec.Impressions
		s.clicks += rec.Clicks
		s.conversions += rec.Conversions
		s.spend += rec.SpendUSD
		s.revenue += rec.RevenueUSD
	}

	var opportunities, risks []model.Finding

	targetCPA, hasTargetCPA := contextFloat(ds, "target_cpa")

	for _, name := range sortedKeys(tactics) {
		s := tactics[name]
		if s.spend < minSpendForSignal {
			continue
		}

		share := ratio(s.spend, metrics.TotalSpendUSD)
		if share > spendConcentrationLimit {
			risks = append(risks, model.Finding{
				Type:   "spend_concentration",
				Metric: "spend_share",
				Value:  share,
				Detail: fmt.Sprintf("tactic %q takes %.0f%% of total spend; a single point of failure for the account",
					name, share*100),
				Tags: []string{name},
			})
		}

		cpa := ratio(s.spend, float64(s.conversions))
		if hasTargetCPA && s.conversions > 0 && cpa > targetCPA {
			risks = append(risks, model.Finding{
				Type:   "cpa_over_target",
				Metric: "cpa",
				Value:  cpa,
				Detail: fmt.Sprintf("tactic %q acquires at $%.2f against a $%.2f target",
					name, cpa, targetCPA),
				Tags: []string{name},
			})
		}

		if metrics.CPA > 0 && s.conversions > 0 && cpa < metrics.CPA*lowCTRFraction {
			opportunities = append(opportunities, model.Finding{
				Type:   "efficient_tactic",
				Metric: "cpa",
				Value:  cpa,
				Detail: fmt.Sprintf("tactic %q acquires at $%.2f, half the account average of $%.2f; shift budget toward it",
					name, cpa, metrics.CPA),
				Tags: []string{name},
			})
		}
	}

	return map[string]any{
		"opportunities": opportunities,
		"risks":         risks,
		"tactic_count":  len(tactics),
	}, nil
}
