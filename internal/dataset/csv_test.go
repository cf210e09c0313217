package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `campaign,platform,audience,tactic,impressions,clicks,conversions,spend,revenue
Brand Search ,Google,retargeting,search,10000,300,30,500.50,1500.25
Prospecting,Meta,lookalike,social,20000,400,20,800,1200
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempFile(t, "q3-campaigns.csv", sampleCSV)

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Label != "q3-campaigns" {
		t.Errorf("label = %q", ds.Label)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ds.Records))
	}

	r := ds.Records[0]
	if r.Campaign != "Brand Search" {
		t.Errorf("identity fields not trimmed: %q", r.Campaign)
	}
	if r.Impressions != 10000 || r.Clicks != 300 || r.Conversions != 30 {
		t.Errorf("counts: %+v", r)
	}
	if r.SpendUSD != 500.50 || r.RevenueUSD != 1500.25 {
		t.Errorf("money: %+v", r)
	}
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "campaign,platform,audience,tactic,impressions,clicks,conversions,spend,revenue\n")
	if _, err := LoadCSV(path); err == nil {
		t.Fatal("expected error for a dataset with no rows")
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoad_DispatchByExtension(t *testing.T) {
	path := writeTempFile(t, "data.csv", sampleCSV)
	if _, err := Load(path); err != nil {
		t.Errorf("csv dispatch: %v", err)
	}
	if _, err := Load(writeTempFile(t, "data.json", "{}")); err == nil {
		t.Error("unsupported extension accepted")
	}
}
