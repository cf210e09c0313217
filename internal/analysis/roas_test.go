package analysis

import (
	"context"
	"testing"

	"github.com/sells-group/adinsights-cli/internal/dataset"
	"github.com/sells-group/adinsights-cli/internal/model"
)

func roasRecords() []model.CampaignRecord {
	return []model.CampaignRecord{
		{Campaign: "loser", SpendUSD: 500, RevenueUSD: 250},
		{Campaign: "winner", SpendUSD: 200, RevenueUSD: 2000},
		{Campaign: "big", SpendUSD: 5000, RevenueUSD: 6000},
		{Campaign: "tiny", SpendUSD: 50, RevenueUSD: 10},
	}
}

func TestRunROAS(t *testing.T) {
	ds := &model.Dataset{Records: roasRecords()}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runROAS(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	risks := byType(findings(payload, "risks"), "unprofitable_spend")
	if len(risks) != 1 || risks[0].Campaign != "loser" {
		t.Errorf("unprofitable_spend: %+v", risks)
	}

	opps := byType(findings(payload, "opportunities"), "scale_winner")
	if len(opps) != 1 || opps[0].Campaign != "winner" {
		t.Fatalf("scale_winner: %+v", opps)
	}
	share, ok := opps[0].Meta["spend_share"].(float64)
	if !ok || share <= 0 || share >= lowSpendShare {
		t.Errorf("spend_share meta: %v", opps[0].Meta)
	}

	// Trivial spend is never judged.
	for _, f := range findings(payload, "risks") {
		if f.Campaign == "tiny" {
			t.Errorf("trivial-spend campaign flagged: %+v", f)
		}
	}
}

func TestRunROAS_TargetOverride(t *testing.T) {
	ds := &model.Dataset{
		Records: roasRecords(),
		Context: map[string]any{"target_roas": 2.0},
	}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runROAS(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["target_roas"] != 2.0 {
		t.Errorf("target not overridden: %v", payload["target_roas"])
	}

	// "big" clears break-even at 1.2 but misses the 2.0 business target.
	risks := byType(findings(payload, "risks"), "unprofitable_spend")
	flagged := map[string]bool{}
	for _, f := range risks {
		flagged[f.Campaign] = true
	}
	if !flagged["loser"] || !flagged["big"] {
		t.Errorf("expected loser and big below target, got %v", flagged)
	}
}
