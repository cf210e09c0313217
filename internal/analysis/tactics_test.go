package analysis

import (
	"context"
	"testing"

	"github.com/sells-group/adinsights-cli/internal/dataset"
	"github.com/sells-group/adinsights-cli/internal/model"
)

func TestRunTactics_EfficientTactic(t *testing.T) {
	ds := &model.Dataset{Records: []model.CampaignRecord{
		{Campaign: "a", Tactic: "display", SpendUSD: 550, Conversions: 10},
		{Campaign: "b", Tactic: "video", SpendUSD: 300, Conversions: 6},
		{Campaign: "c", Tactic: "search", SpendUSD: 150, Conversions: 100},
	}}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runTactics(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opps := byType(findings(payload, "opportunities"), "efficient_tactic")
	if len(opps) != 1 || opps[0].Tags[0] != "search" {
		t.Errorf("efficient_tactic: %+v", opps)
	}
	if hasType(findings(payload, "risks"), "spend_concentration") {
		t.Error("no tactic exceeds the concentration limit")
	}
	if payload["tactic_count"] != 3 {
		t.Errorf("tactic_count: %v", payload["tactic_count"])
	}
}

func TestRunTactics_SpendConcentration(t *testing.T) {
	ds := &model.Dataset{Records: []model.CampaignRecord{
		{Campaign: "a", Tactic: "search", SpendUSD: 700, Conversions: 50},
		{Campaign: "b", Tactic: "display", SpendUSD: 300, Conversions: 20},
	}}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runTactics(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	risks := byType(findings(payload, "risks"), "spend_concentration")
	if len(risks) != 1 || risks[0].Tags[0] != "search" {
		t.Errorf("spend_concentration: %+v", risks)
	}
	if risks[0].Value <= spendConcentrationLimit {
		t.Errorf("share %f should exceed the limit", risks[0].Value)
	}
}

func TestRunTactics_TargetCPA(t *testing.T) {
	ds := &model.Dataset{
		Records: []model.CampaignRecord{
			{Campaign: "a", Tactic: "display", SpendUSD: 550, Conversions: 10},
			{Campaign: "b", Tactic: "search", SpendUSD: 450, Conversions: 150},
		},
		Context: map[string]any{"target_cpa": 5.0},
	}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runTactics(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	over := byType(findings(payload, "risks"), "cpa_over_target")
	if len(over) != 1 || over[0].Tags[0] != "display" {
		t.Errorf("cpa_over_target: %+v", over)
	}
}

func TestRunTactics_BlankTacticIgnored(t *testing.T) {
	ds := &model.Dataset{Records: []model.CampaignRecord{
		{Campaign: "a", Tactic: "", SpendUSD: 1000, Conversions: 10},
	}}
	metrics := dataset.ComputeMetrics(ds.Records)

	payload, err := runTactics(context.Background(), ds, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["tactic_count"] != 0 {
		t.Errorf("blank tactic counted: %v", payload["tactic_count"])
	}
}
