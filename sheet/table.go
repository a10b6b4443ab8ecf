package sheet

import "time"

// Cell is one spreadsheet cell. Date holds the parsed value of cells the
// workbook formats as dates.
type Cell struct {
	Text   string
	Date   time.Time
	IsDate bool
}

// Row is one data row
type Row []Cell

// Cell returns the cell at idx, or an empty cell when idx is out of range
func (r Row) Cell(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return Cell{}
	}
	return r[idx]
}

// Table is the header row plus data rows of one sheet
type Table struct {
	Headers []string
	Rows    []Row
}

func textRow(values []string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Cell{Text: v}
	}
	return row
}
