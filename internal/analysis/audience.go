package analysis

import (
	"context"
	"fmt"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// segmentStats accumulates per-audience totals from raw records; the shared
// metrics only roll up by campaign and platform.
type segmentStats struct {
	impressions int64
	clicks      int64
	conversions int64
	spend       float64
	revenue     float64
}

// runAudience rolls records up by audience segment and compares conversion
// efficiency across segments.
func runAudience(_ context.Context, ds *model.Dataset, metrics model.SharedMetrics) (map[string]any, error) {
	segments := make(map[string]*segmentStats)
	for _, rec := range ds.Records {
		if rec.Audience == "" {
			continue
		}
		s := segments[rec.Audience]
		if s == nil {
			s = &segmentStats{}
			segments[rec.Audience] = s
		}
		s.impressions += rec.Impressions
		s.clicks += rec.Clicks
		s.conversions += rec.Conversions
		s.spend += rec.SpendUSD
		s.revenue += rec.RevenueUSD
	}

	var opportunities, risks []model.Finding
	summary := make(map[string]any, len(segments))

	for _, name := range sortedKeys(segments) {
		s := segments[name]
		cvr := ratio(float64(s.conversions), float64(s.clicks))
		roas := ratio(s.revenue, s.spend)
		summary[name] = map[string]any{
			"cvr":  cvr,
			"roas": roas,
		}
		if s.clicks < 100 {
			continue
		}

		if metrics.CVR > 0 && cvr > metrics.CVR*strongCTRFraction {
			opportunities = append(opportunities, model.Finding{
				Type:   "responsive_audience",
				Metric: "cvr",
				Value:  cvr,
				Detail: fmt.Sprintf("audience %q converts at %.2f%% against an account average of %.2f%%; worth expanding into lookalikes",
					name, cvr*100, metrics.CVR*100),
				Tags: []string{name},
			})
		}

		if s.spend >= minSpendForSignal && roas < breakEvenROAS {
			risks = append(risks, model.Finding{
				Type:   "audience_fatigue",
				Metric: "roas",
				Value:  roas,
				Detail: fmt.Sprintf("audience %q returns %.2f on $%.0f spend; frequency capping or exclusion is warranted",
					name, roas, s.spend),
				Tags: []string{name},
			})
		}
	}

	return map[string]any{
		"opportunities": opportunities,
		"risks":         risks,
		"segments":      summary,
	}, nil
}
