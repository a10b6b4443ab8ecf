package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgen-server-go/models"
	"certgen-server-go/sheet"
)

var issueDate = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func textRow(values ...string) sheet.Row {
	row := make(sheet.Row, len(values))
	for i, v := range values {
		row[i] = sheet.Cell{Text: v}
	}
	return row
}

func TestDeriveFullRow(t *testing.T) {
	headers := []string{"学号", "姓名", "性别", "证件类型", "身份证件号码", "出生日期", "入学年份", "在读年级"}
	cols, err := sheet.MatchColumns(headers)
	require.NoError(t, err)

	row := textRow("S001", " 张三 ", "男", "居民身份证", "'110101199003070011", "2010/05/03", "2024-09-01", "三年级")
	rec := Derive(row, cols, issueDate)

	assert.Equal(t, models.Record{
		NameZh:       "张三",
		NameEn:       "Zhang, San",
		GenderZh:     "男",
		GenderEn:     "Male",
		IDTypeZh:     "居民身份证",
		IDTypeEn:     "ID Card",
		IDNumber:     "110101199003070011",
		DOBZh:        "2010年05月03日",
		DOBEn:        "May 03, 2010",
		StudentID:    "S001",
		AdmitYear:    "2024",
		AdmitMonth:   "9",
		AdmitMonthEn: "September",
		DateZh:       "2026年10月16日",
		DateEn:       "October 16, 2026",
		Grade:        "三年级",
		GradeEn:      "3rd Grade",
	}, rec)
}

func TestDeriveDefaultsAndFallbacks(t *testing.T) {
	cols, err := sheet.MatchColumns([]string{"Name", "ID Number"})
	require.NoError(t, err)

	rec := Derive(textRow("李四", "11010519491231002X"), cols, issueDate)

	assert.Equal(t, DefaultIDTypeZh, rec.IDTypeZh)
	assert.Equal(t, "ID Card", rec.IDTypeEn)
	assert.Equal(t, "1949年12月31日", rec.DOBZh, "birth date read from the id card")
	assert.Equal(t, "December 31, 1949", rec.DOBEn)
	assert.Equal(t, "女", rec.GenderZh, "sex read from the id card")
	assert.Equal(t, "Female", rec.GenderEn)
	assert.Equal(t, Unknown, rec.AdmitYear)
	assert.Equal(t, Unknown, rec.AdmitMonth)
	assert.Equal(t, Unknown, rec.AdmitMonthEn)
	assert.Equal(t, "", rec.StudentID)
}

func TestDeriveExcelDates(t *testing.T) {
	cols, err := sheet.MatchColumns([]string{"Name", "Birth", "Admission"})
	require.NoError(t, err)

	row := sheet.Row{
		{Text: "Alice"},
		{Text: "05-03-10", Date: time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), IsDate: true},
		{Text: "09-01-24", Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), IsDate: true},
	}
	rec := Derive(row, cols, issueDate)

	assert.Equal(t, "Alice", rec.NameEn)
	assert.Equal(t, "May 03, 2010", rec.DOBEn)
	assert.Equal(t, "2024", rec.AdmitYear)
	assert.Equal(t, "9", rec.AdmitMonth)
}

func TestDeriveAdmission(t *testing.T) {
	tests := []struct {
		in                     string
		year, month, monthName string
	}{
		{"2024-08", "2024", "8", "August"},
		{"2024/9/1", "2024", "9", "September"},
		{"2024-13", "2024", "13", Unknown},
		{"2024-0", "2024", "0", Unknown},
		{"2024-秋", "2024", "秋", Unknown},
		{"2023", "2023", Unknown, Unknown},
		{"去年", Unknown, Unknown, Unknown},
		{"", Unknown, Unknown, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var rec models.Record
			deriveAdmission(&rec, sheet.Cell{Text: tt.in})
			assert.Equal(t, tt.year, rec.AdmitYear)
			assert.Equal(t, tt.month, rec.AdmitMonth)
			assert.Equal(t, tt.monthName, rec.AdmitMonthEn)
		})
	}
}

func TestDeriveUnparsedBirthKeepsText(t *testing.T) {
	cols, err := sheet.MatchColumns([]string{"Name", "Birth"})
	require.NoError(t, err)

	rec := Derive(textRow("Bob", "spring 2010"), cols, issueDate)
	assert.Equal(t, "spring 2010", rec.DOBZh)
	assert.Equal(t, "spring 2010", rec.DOBEn)
}

func TestLoadRecordsSkipsNameless(t *testing.T) {
	table := &sheet.Table{
		Headers: []string{"Student ID", "Name", "Gender"},
		Rows: []sheet.Row{
			textRow("1", "王五", "男"),
			textRow("2", "", "女"),
			textRow("3"),
			textRow("4", "Jane Doe", "Female"),
		},
	}

	res, err := LoadRecords(table, issueDate)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, models.RecordKeys(), res.Keys)
	assert.Equal(t, "Wang, Wu", res.Records[0].NameEn)
	assert.Equal(t, "Jane Doe", res.Records[1].NameEn)
	assert.Equal(t, "Female", res.Records[1].GenderEn)
}

func TestLoadRecordsMissingName(t *testing.T) {
	table := &sheet.Table{Headers: []string{"Student ID", "Gender"}}
	_, err := LoadRecords(table, issueDate)
	assert.ErrorIs(t, err, sheet.ErrMissingColumns)
}

func TestLoadRecordsGrid(t *testing.T) {
	table := &sheet.Table{
		Headers: []string{models.KeyNameZh, models.KeyNameEn, models.KeyStudentID, "notes"},
		Rows: []sheet.Row{
			textRow("张三", "Zhang, Sam", "S001", "edited by hand"),
			textRow("", "Nobody", "S002"),
		},
	}

	res, err := LoadRecords(table, issueDate)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Zhang, Sam", res.Records[0].NameEn, "grid edits are kept as-is")
	assert.Equal(t, "S001", res.Records[0].StudentID)
}
