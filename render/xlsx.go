package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxRenderer fills {key} placeholders in every sheet of a workbook
type XlsxRenderer struct {
	template []byte
}

// NewXlsxRenderer checks that template is a readable workbook
func NewXlsxRenderer(template []byte) (*XlsxRenderer, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx template: %w", err)
	}
	_ = f.Close()
	return &XlsxRenderer{template: template}, nil
}

func (r *XlsxRenderer) Ext() string { return ".xlsx" }

func (r *XlsxRenderer) Render(data map[string]interface{}, w io.Writer) error {
	f, err := excelize.OpenReader(bytes.NewReader(r.template))
	if err != nil {
		return fmt.Errorf("failed to open xlsx template: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			for j, value := range row {
				if !strings.Contains(value, "{") {
					continue
				}
				replaced := Substitute(value, data)
				if replaced == value {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(j+1, i+1)
				if err != nil {
					return err
				}
				if err := f.SetCellStr(sheet, cell, replaced); err != nil {
					return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
