package dataset

import (
	"time"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// ComputeMetrics derives the shared metrics from campaign records. It runs
// once per analysis and its output is read-only to every task, so parallel
// and sequential scheduling see identical inputs.
func ComputeMetrics(records []model.CampaignRecord) model.SharedMetrics {
	m := model.SharedMetrics{
		ByCampaign: make(map[string]model.CampaignMetrics),
		ByPlatform: make(map[string]model.CampaignMetrics),
		ComputedAt: time.Now().UTC(),
	}

	for _, r := range records {
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
		m.TotalConversions += r.Conversions
		m.TotalSpendUSD += r.SpendUSD
		m.TotalRevenueUSD += r.RevenueUSD

		accumulate(m.ByCampaign, r.Campaign, r)
		accumulate(m.ByPlatform, r.Platform, r)
	}

	m.CTR = ratio(float64(m.TotalClicks), float64(m.TotalImpressions))
	m.CVR = ratio(float64(m.TotalConversions), float64(m.TotalClicks))
	m.CPA = ratio(m.TotalSpendUSD, float64(m.TotalConversions))
	m.CPC = ratio(m.TotalSpendUSD, float64(m.TotalClicks))
	m.ROAS = ratio(m.TotalRevenueUSD, m.TotalSpendUSD)

	for k, cm := range m.ByCampaign {
		m.ByCampaign[k] = finalize(cm)
	}
	for k, cm := range m.ByPlatform {
		m.ByPlatform[k] = finalize(cm)
	}

	return m
}

func accumulate(agg map[string]model.CampaignMetrics, key string, r model.CampaignRecord) {
	if key == "" {
		key = "(unknown)"
	}
	cm := agg[key]
	cm.Impressions += r.Impressions
	cm.Clicks += r.Clicks
	cm.Conversions += r.Conversions
	cm.SpendUSD += r.SpendUSD
	cm.RevenueUSD += r.RevenueUSD
	agg[key] = cm
}

func finalize(cm model.CampaignMetrics) model.CampaignMetrics {
	cm.CTR = ratio(float64(cm.Clicks), float64(cm.Impressions))
	cm.CVR = ratio(float64(cm.Conversions), float64(cm.Clicks))
	cm.CPA = ratio(cm.SpendUSD, float64(cm.Conversions))
	cm.ROAS = ratio(cm.RevenueUSD, cm.SpendUSD)
	return cm
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
