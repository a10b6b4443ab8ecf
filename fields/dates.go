package fields

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	"2006/1/2 15:04:05",
	"2006/1/2",
	"1/2/2006",
	"2006-1-2",
	"2006-1",
	"2006.1.2",
	"20060102",
}

// ParseDate parses a date cell written in any of the accepted layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatZh formats t as 2006年01月02日
func FormatZh(t time.Time) string {
	return t.Format("2006年01月02日")
}

// FormatEn formats t as January 02, 2006
func FormatEn(t time.Time) string {
	return t.Format("January 02, 2006")
}

// MonthName returns the English month name for 1..12 and "Unknown" otherwise
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return Unknown
	}
	return time.Month(m).String()
}
