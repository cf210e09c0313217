// Package model defines the core data types shared across the analysis pipeline.
package model

import "time"

// CampaignRecord is one row of advertising performance data.
type CampaignRecord struct {
	Campaign    string  `csv:"campaign" json:"campaign"`
	Platform    string  `csv:"platform" json:"platform"`
	Audience    string  `csv:"audience" json:"audience"`
	Tactic      string  `csv:"tactic" json:"tactic"`
	Impressions int64   `csv:"impressions" json:"impressions"`
	Clicks      int64   `csv:"clicks" json:"clicks"`
	Conversions int64   `csv:"conversions" json:"conversions"`
	SpendUSD    float64 `csv:"spend" json:"spend_usd"`
	RevenueUSD  float64 `csv:"revenue" json:"revenue_usd"`
}

// Dataset is the read-only input to an analysis run: typed campaign rows
// plus an optional business-context map (benchmarks, goals, attributes).
type Dataset struct {
	Label   string           `json:"label"`
	Records []CampaignRecord `json:"records"`
	Context map[string]any   `json:"context,omitempty"`
}

// CampaignMetrics holds derived metrics for a single campaign.
type CampaignMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	SpendUSD    float64 `json:"spend_usd"`
	RevenueUSD  float64 `json:"revenue_usd"`
	CTR         float64 `json:"ctr"`
	CVR         float64 `json:"cvr"`
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
}

// SharedMetrics is computed once per run and handed to every analysis task.
type SharedMetrics struct {
	TotalImpressions int64                      `json:"total_impressions"`
	TotalClicks      int64                      `json:"total_clicks"`
	TotalConversions int64                      `json:"total_conversions"`
	TotalSpendUSD    float64                    `json:"total_spend_usd"`
	TotalRevenueUSD  float64                    `json:"total_revenue_usd"`
	CTR              float64                    `json:"ctr"`
	CVR              float64                    `json:"cvr"`
	CPA              float64                    `json:"cpa"`
	CPC              float64                    `json:"cpc"`
	ROAS             float64                    `json:"roas"`
	ByCampaign       map[string]CampaignMetrics `json:"by_campaign"`
	ByPlatform       map[string]CampaignMetrics `json:"by_platform"`
	ComputedAt       time.Time                  `json:"computed_at"`
}

// TokenUsage tracks token consumption across provider calls.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
