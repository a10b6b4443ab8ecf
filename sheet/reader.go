package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"certgen-server-go/logger"
)

// ErrEmptySheet is returned when the input has no header row
var ErrEmptySheet = errors.New("sheet does not contain a header row")

// ErrUnsupportedFormat is returned for file extensions ReadFile cannot load
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ReadFile loads a spreadsheet, picking the reader by file extension
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(f)
	case ".csv", ".tsv", ".txt":
		return ReadDelimited(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// IsWorkbook reports whether name has a spreadsheet workbook extension
func IsWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadWorkbook reads the active sheet of an xlsx/xlsm workbook. The first row
// is the header row.
func ReadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get raw rows from sheet %s: %w", sheetName, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	table := &Table{Headers: rows[0]}
	for i := 1; i < len(rows); i++ {
		row := textRow(rows[i])
		for j := range row {
			if i >= len(raw) || j >= len(raw[i]) {
				continue
			}
			if t, ok := dateCell(f, sheetName, i, j, rows[i][j], raw[i][j], date1904); ok {
				row[j].Date = t
				row[j].IsDate = true
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// dateCell converts a numeric cell carrying a date number format into a time
func dateCell(f *excelize.File, sheetName string, row, col int, formatted, raw string, date1904 bool) (t time.Time, ok bool) {
	if formatted == raw {
		return t, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 {
		return t, false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return t, false
	}
	styleID, err := f.GetCellStyle(sheetName, cell)
	if err != nil {
		return t, false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return t, false
	}
	t, err = excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return t, false
	}
	return t, true
}

func isDateFormat(style *excelize.Style) bool {
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	format := strings.ToLower(stripFormatLiterals(*style.CustomNumFmt))
	return strings.ContainsAny(format, "yd")
}

// stripFormatLiterals removes quoted text and [..] sections from a number format
func stripFormatLiterals(format string) string {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range format {
		switch {
		case r == '"' && !inBracket:
			inQuote = !inQuote
		case r == '[' && !inQuote:
			inBracket = true
		case r == ']' && inBracket:
			inBracket = false
		case !inQuote && !inBracket:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReadDelimited reads comma or tab separated text, such as cells pasted from
// a spreadsheet. Input that is not valid UTF-8 is decoded as GB18030.
func ReadDelimited(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data: %w", err)
		}
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.ContainsRune(firstLine, '\t') {
		cr.Comma = '\t'
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited data: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}

	table := &Table{Headers: records[0]}
	for _, rec := range records[1:] {
		table.Rows = append(table.Rows, textRow(rec))
	}
	return table, nil
}
