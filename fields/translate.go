package fields

import "strings"

const (
	// Unknown fills derived fields that could not be worked out
	Unknown = "Unknown"
	// DefaultIDTypeZh is assumed when the sheet has no ID type
	DefaultIDTypeZh = "身份证"
)

// Gender translates a gender cell. Values without 男 or 女 pass through.
func Gender(zh string) string {
	switch {
	case strings.Contains(zh, "男"):
		return "Male"
	case strings.Contains(zh, "女"):
		return "Female"
	default:
		return zh
	}
}

// IDType translates an ID type cell
func IDType(zh string) string {
	switch {
	case strings.Contains(zh, "身份证"):
		return "ID Card"
	case strings.Contains(zh, "护照"):
		return "Passport"
	default:
		return "ID Document"
	}
}

// isIDCard reports whether the ID type names a resident ID card
func isIDCard(zh string) bool {
	return strings.Contains(zh, "身份证")
}

var idQuotes = strings.NewReplacer("‘", "", "’", "", "'", "")

// CleanIDNumber drops the quote characters spreadsheets use to force text
func CleanIDNumber(s string) string {
	return strings.TrimSpace(idQuotes.Replace(s))
}
