package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"certgen-server-go/models"
	"certgen-server-go/sheet"
)

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// Derive maps one spreadsheet row onto a record. now supplies the issue date.
func Derive(row sheet.Row, cols sheet.ColumnMap, now time.Time) models.Record {
	text := func(key string) string {
		return strings.TrimSpace(row.Cell(cols.Index(key)).Text)
	}

	rec := models.Record{
		NameZh:    text(sheet.ColName),
		GenderZh:  text(sheet.ColGender),
		IDTypeZh:  text(sheet.ColIDType),
		Grade:     text(sheet.ColGrade),
		StudentID: text(sheet.ColStudentID),
		IDNumber:  CleanIDNumber(text(sheet.ColIDNumber)),
	}
	if rec.IDTypeZh == "" {
		rec.IDTypeZh = DefaultIDTypeZh
	}

	var card *IDCard
	if isIDCard(rec.IDTypeZh) {
		if c, err := ParseIDCard(rec.IDNumber); err == nil {
			card = &c
		}
	}

	dobCell := row.Cell(cols.Index(sheet.ColDOB))
	if dob, ok := cellDate(dobCell); ok {
		rec.DOBZh = FormatZh(dob)
		rec.DOBEn = FormatEn(dob)
	} else if raw := strings.TrimSpace(dobCell.Text); raw != "" {
		rec.DOBZh = raw
		rec.DOBEn = raw
	} else if card != nil {
		rec.DOBZh = FormatZh(card.Birth)
		rec.DOBEn = FormatEn(card.Birth)
	}

	deriveAdmission(&rec, row.Cell(cols.Index(sheet.ColAdmitDate)))

	rec.DateZh = FormatZh(now)
	rec.DateEn = FormatEn(now)

	rec.NameEn = EnglishName(rec.NameZh)

	if rec.GenderZh == "" && card != nil {
		rec.GenderZh = card.GenderZh()
	}
	rec.GenderEn = Gender(rec.GenderZh)
	rec.IDTypeEn = IDType(rec.IDTypeZh)
	rec.GradeEn = GradeEnglish(rec.Grade)

	return rec
}

func cellDate(c sheet.Cell) (time.Time, bool) {
	if c.IsDate {
		return c.Date, true
	}
	return ParseDate(c.Text)
}

func deriveAdmission(rec *models.Record, c sheet.Cell) {
	if t, ok := cellDate(c); ok {
		rec.AdmitYear = strconv.Itoa(t.Year())
		rec.AdmitMonth = strconv.Itoa(int(t.Month()))
		rec.AdmitMonthEn = t.Month().String()
		return
	}

	raw := strings.TrimSpace(c.Text)
	switch {
	case strings.Contains(raw, "-"):
		parts := strings.Split(raw, "-")
		rec.AdmitYear = parts[0]
		rec.AdmitMonth = parts[1]
		rec.AdmitMonthEn = Unknown
		if m, err := strconv.Atoi(parts[1]); err == nil {
			rec.AdmitMonthEn = MonthName(m)
		}
	case yearOnly.MatchString(raw):
		rec.AdmitYear = raw
		rec.AdmitMonth = Unknown
		rec.AdmitMonthEn = Unknown
	default:
		rec.AdmitYear = Unknown
		rec.AdmitMonth = Unknown
		rec.AdmitMonthEn = Unknown
	}
}
