package sheet

import (
	"strconv"

	"github.com/xuri/excelize/v2"

	"certgen-server-go/models"
)

const gridSheetName = "Students"

// WriteWorkbook exports records as an editable grid. The header row holds
// the record keys so the file can be loaded back unchanged.
func WriteWorkbook(keys []string, records []models.Record) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "certgen-server-go",
		DocSecurity: 0,
	})

	sheet := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(sheet, gridSheetName); err != nil {
		return nil, err
	}
	sheet = gridSheetName

	header := make([]interface{}, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	if err := xlsx.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	// Cells are written as text so ID numbers keep their leading digits
	textStyle, err := xlsx.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return nil, err
	}
	for i := range records {
		row := make([]interface{}, len(keys))
		for j, k := range keys {
			row[j] = records[i].Get(k)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xlsx.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if len(keys) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(keys))
		if err != nil {
			return nil, err
		}
		_ = xlsx.SetColWidth(sheet, "A", lastCol, 18)

		bold, err := xlsx.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
			Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
		})
		if err != nil {
			return nil, err
		}
		_ = xlsx.SetCellStyle(sheet, "A1", lastCol+"1", bold)
		if len(records) > 0 {
			_ = xlsx.SetCellStyle(sheet, "A2", lastCol+strconv.Itoa(len(records)+1), textStyle)
		}
	}

	_ = xlsx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
