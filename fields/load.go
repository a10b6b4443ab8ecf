package fields

import (
	"strings"
	"time"

	"certgen-server-go/models"
	"certgen-server-go/sheet"
)

// LoadResult is the outcome of turning a table into records
type LoadResult struct {
	Keys    []string
	Records []models.Record
	Skipped int // rows without a name
}

// LoadRecords turns a sheet into records. A sheet whose header row already
// holds the record keys (an exported grid) is read back field by field;
// anything else goes through column matching and Derive. Rows with an empty
// name are skipped.
func LoadRecords(table *sheet.Table, now time.Time) (*LoadResult, error) {
	if isGrid(table.Headers) {
		return loadGrid(table), nil
	}

	cols, err := sheet.MatchColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{Keys: models.RecordKeys()}
	nameIdx := cols.Index(sheet.ColName)
	for _, row := range table.Rows {
		if strings.TrimSpace(row.Cell(nameIdx).Text) == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, Derive(row, cols, now))
	}
	return res, nil
}

func isGrid(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) == models.KeyNameZh {
			return true
		}
	}
	return false
}

func loadGrid(table *sheet.Table) *LoadResult {
	res := &LoadResult{Keys: models.RecordKeys()}
	for _, row := range table.Rows {
		var rec models.Record
		for i, h := range table.Headers {
			rec.Set(strings.TrimSpace(h), row.Cell(i).Text)
		}
		if strings.TrimSpace(rec.NameZh) == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}
