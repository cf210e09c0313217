// Package dataset loads campaign performance data and derives the shared
// metrics handed to every analysis task.
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// Load reads a campaign dataset from a CSV or XLSX file, picking the parser
// by extension.
func Load(path string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type: %s", path)
	}
}

// LoadCSV reads campaign records from a CSV file with a header row.
func LoadCSV(path string) (*model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}

	var records []model.CampaignRecord
	if err := csvutil.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "dataset: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.Errorf("dataset: no rows in %s", path)
	}

	return &model.Dataset{
		Label:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Records: normalize(records),
	}, nil
}

// normalize trims whitespace from identity fields so dedup keys and
// per-campaign grouping are stable regardless of source formatting.
func normalize(records []model.CampaignRecord) []model.CampaignRecord {
	out := make([]model.CampaignRecord, len(records))
	for i, r := range records {
		r.Campaign = strings.TrimSpace(r.Campaign)
		r.Platform = strings.TrimSpace(r.Platform)
		r.Audience = strings.TrimSpace(r.Audience)
		r.Tactic = strings.TrimSpace(r.Tactic)
		out[i] = r
	}
	return out
}
