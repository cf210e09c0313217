package analysis

import (
	"context"
	"fmt"

	"github.com/sells-group/adinsights-cli/internal/model"
)

const (
	// lowCTRFraction flags campaigns whose CTR falls below this fraction of
	// the account-wide CTR.
	lowCTRFraction = 0.5

	// strongCTRFraction marks campaigns meaningfully above the account CTR.
	strongCTRFraction = 1.5

	// minImpressionsForSignal ignores campaigns too small to judge.
	minImpressionsForSignal = 1000
)

// runFunnel examines the impression → click → conversion funnel per
// campaign against the account-wide rates.
func runFunnel(_ context.Context, _ *model.Dataset, metrics model.SharedMetrics) (map[string]any, error) {
	var opportunities, risks []model.Finding

	for _, name := range sortedKeys(metrics.ByCampaign) {
		cm := metrics.ByCampaign[name]
		if cm.Impressions < minImpressionsForSignal {
			continue
		}

		if metrics.CTR > 0 && cm.CTR < metrics.CTR*lowCTRFraction {
			risks = append(risks, model.Finding{
				Type:     "weak_ctr",
				Campaign: name,
				Metric:   "ctr",
				Value:    cm.CTR,
				Detail: fmt.Sprintf("CTR %.2f%% is under half the account average of %.2f%%; creative or targeting is not landing",
					cm.CTR*100, metrics.CTR*100),
			})
		}

		if metrics.CVR > 0 && cm.Clicks > 0 && cm.CVR < metrics.CVR*lowCTRFraction {
			risks = append(risks, model.Finding{
				Type:     "weak_cvr",
				Campaign: name,
				Metric:   "cvr",
				Value:    cm.CVR,
				Detail: fmt.Sprintf("clicks convert at %.2f%% against an account average of %.2f%%; the landing experience is losing the traffic the ads win",
					cm.CVR*100, metrics.CVR*100),
			})
		}

		if metrics.CTR > 0 && cm.CTR > metrics.CTR*strongCTRFraction && cm.CVR >= metrics.CVR {
			opportunities = append(opportunities, model.Finding{
				Type:     "strong_funnel",
				Campaign: name,
				Metric:   "ctr",
				Value:    cm.CTR,
				Detail: fmt.Sprintf("CTR %.2f%% and CVR %.2f%% both beat the account averages; a candidate for more budget",
					cm.CTR*100, cm.CVR*100),
			})
		}
	}

	return map[string]any{
		"opportunities": opportunities,
		"risks":         risks,
		"account_ctr":   metrics.CTR,
		"account_cvr":   metrics.CVR,
	}, nil
}
