package dataset

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// LoadXLSX reads campaign records from the first sheet of an XLSX file.
// The first row must be a header; column order is taken from it.
func LoadXLSX(path string) (*model.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.Errorf("dataset: no data rows in %s", path)
	}

	cols := make(map[string]int)
	for j, cell := range sheet.Rows[0].Cells {
		cols[strings.ToLower(strings.TrimSpace(cell.String()))] = j
	}

	var records []model.CampaignRecord
	for _, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rec := model.CampaignRecord{
			Campaign:    cellAt(cells, cols, "campaign"),
			Platform:    cellAt(cells, cols, "platform"),
			Audience:    cellAt(cells, cols, "audience"),
			Tactic:      cellAt(cells, cols, "tactic"),
			Impressions: cellInt(cells, cols, "impressions"),
			Clicks:      cellInt(cells, cols, "clicks"),
			Conversions: cellInt(cells, cols, "conversions"),
			SpendUSD:    cellFloat(cells, cols, "spend"),
			RevenueUSD:  cellFloat(cells, cols, "revenue"),
		}
		if rec.Campaign == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("dataset: no rows in %s", path)
	}

	return &model.Dataset{
		Label:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Records: normalize(records),
	}, nil
}

func cellAt(cells []string, cols map[string]int, name string) string {
	j, ok := cols[name]
	if !ok || j >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[j])
}

func cellInt(cells []string, cols map[string]int, name string) int64 {
	n, _ := strconv.ParseInt(strings.ReplaceAll(cellAt(cells, cols, name), ",", ""), 10, 64)
	return n
}

func cellFloat(cells []string, cols map[string]int, name string) float64 {
	s := strings.TrimPrefix(strings.ReplaceAll(cellAt(cells, cols, name), ",", ""), "$")
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
