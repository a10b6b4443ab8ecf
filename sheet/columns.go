package sheet

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column keys located in the header row
const (
	ColName      = "name_zh"
	ColGender    = "gender_zh"
	ColIDType    = "id_type_zh"
	ColIDNumber  = "id_number"
	ColDOB       = "dob"
	ColAdmitDate = "admit_date"
	ColStudentID = "student_id"
	ColGrade     = "grade"
)

// ErrMissingColumns is returned when the header row has no name column
var ErrMissingColumns = errors.New("could not find required columns (Name, ID, etc)")

var columnKeywords = []struct {
	key      string
	keywords []string
}{
	{ColName, []string{"姓名", "legal name", "Name"}},
	{ColGender, []string{"性别", "Gender"}},
	{ColIDType, []string{"证件类型", "ID Type"}},
	{ColIDNumber, []string{"身份证件号码", "No.", "ID Number"}},
	{ColDOB, []string{"出生日期", "Birth"}},
	{ColAdmitDate, []string{"入学年份", "Admission"}},
	{ColStudentID, []string{"学号", "Student ID"}},
	{ColGrade, []string{"在读年级", "Grade"}},
}

// ColumnMap maps column keys to header indexes
type ColumnMap map[string]int

// Index returns the header index of key, or -1 when the column is absent
func (m ColumnMap) Index(key string) int {
	idx, ok := m[key]
	if !ok {
		return -1
	}
	return idx
}

// MatchColumns locates each column key in headers. The first header holding
// any of the key's keywords wins. Only the name column is required.
func MatchColumns(headers []string) (ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	mapping := make(ColumnMap, len(columnKeywords))
	for _, col := range columnKeywords {
		mapping[col.key] = findHeader(normalized, col.keywords)
	}

	if mapping.Index(ColName) == -1 {
		return nil, ErrMissingColumns
	}
	return mapping, nil
}

func findHeader(headers, keywords []string) int {
	for idx, header := range headers {
		for _, kw := range keywords {
			if strings.Contains(header, kw) {
				return idx
			}
		}
	}
	return -1
}

// NormalizeHeader folds full-width forms and trims surrounding space
func NormalizeHeader(h string) string {
	return strings.TrimSpace(norm.NFKC.String(h))
}
