package analysis

import (
	"context"
	"fmt"

	"github.com/sells-group/adinsights-cli/internal/model"
)

const (
	// breakEvenROAS is the floor below which spend loses money outright.
	breakEvenROAS = 1.0

	// scaleROASFraction marks campaigns well above the account ROAS.
	scaleROASFraction = 1.5

	// minSpendForSignal ignores campaigns with trivial spend.
	minSpendForSignal = 100.0

	// lowSpendShare marks a strong campaign taking a small slice of budget.
	lowSpendShare = 0.15
)

// runROAS looks for unprofitable spend and underfunded winners. The
// dataset's business context may override the break-even line with a
// target_roas entry.
func runROAS(_ context.Context, ds *model.Dataset, metrics model.SharedMetrics) (map[string]any, error) {
	target := breakEvenROAS
	if t, ok := contextFloat(ds, "target_roas"); ok && t > 0 {
		target = t
	}

	var opportunities, risks []model.Finding

	for _, name := range sortedKeys(metrics.ByCampaign) {
		cm := metrics.ByCampaign[name]
		if cm.SpendUSD < minSpendForSignal {
			continue
		}

		if cm.ROAS < target {
			risks = append(risks, model.Finding{
				Type:     "unprofitable_spend",
				Campaign: name,
				Metric:   "roas",
				Value:    cm.ROAS,
				Detail: fmt.Sprintf("ROAS %.2f is below the %.2f target on $%.0f spend; pausing or restructuring would stop the bleed",
					cm.ROAS, target, cm.SpendUSD),
			})
			continue
		}

		spendShare := ratio(cm.SpendUSD, metrics.TotalSpendUSD)
		if metrics.ROAS > 0 && cm.ROAS > metrics.ROAS*scaleROASFraction && spendShare < lowSpendShare {
			opportunities = append(opportunities, model.Finding{
				Type:     "scale_winner",
				Campaign: name,
				Metric:   "roas",
				Value:    cm.ROAS,
				Detail: fmt.Sprintf("ROAS %.2f beats the account average of %.2f but holds only %.0f%% of spend; room to scale",
					cm.ROAS, metrics.ROAS, spendShare*100),
				Meta: map[string]any{"spend_share": spendShare},
			})
		}
	}

	return map[string]any{
		"opportunities": opportunities,
		"risks":         risks,
		"target_roas":   target,
		"account_roas":  metrics.ROAS,
	}, nil
}
