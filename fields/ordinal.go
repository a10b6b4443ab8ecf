package fields

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

var chineseDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// chineseNumber parses 一..九十九 written with 十
func chineseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if s == "十" {
		return 10, true
	}
	if r, size := utf8.DecodeRuneInString(s); size == len(s) {
		n, ok := chineseDigits[r]
		return n, ok
	}
	tens, ones, found := strings.Cut(s, "十")
	if !found {
		return 0, false
	}
	n := 10
	if tens != "" {
		t, ok := chineseNumber(tens)
		if !ok || t > 9 {
			return 0, false
		}
		n = t * 10
	}
	if ones != "" {
		o, ok := chineseNumber(ones)
		if !ok || o > 9 {
			return 0, false
		}
		n += o
	}
	return n, true
}

var stagePrefixes = []struct {
	prefix string
	offset int
}{
	{"小学", 0},
	{"初中", 6},
	{"初", 6},
	{"高中", 9},
	{"高", 9},
}

// maxGrade is the last school grade; larger numbers (years, scores) are not
// grades
const maxGrade = 12

// GradeNumber extracts a school grade 1..12 from strings like "3", "Grade 3",
// "三年级", "初一" (7) or "高三" (12)
func GradeNumber(s string) (int, bool) {
	n, ok := parseGrade(s)
	if !ok || n > maxGrade {
		return 0, false
	}
	return n, true
}

func parseGrade(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if digits := leadingDigits(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "grade"))); digits != "" {
		n, err := strconv.Atoi(digits)
		if err == nil && n > 0 {
			return n, true
		}
	}

	offset := 0
	for _, p := range stagePrefixes {
		if strings.HasPrefix(s, p.prefix) {
			s = strings.TrimPrefix(s, p.prefix)
			offset = p.offset
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "年级"), "年")
	if digits := leadingDigits(s); digits != "" && digits == s {
		n, err := strconv.Atoi(digits)
		if err == nil && n > 0 {
			return n + offset, true
		}
	}
	if n, ok := chineseNumber(s); ok && n > 0 {
		return n + offset, true
	}
	return 0, false
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// GradeEnglish renders a grade as "3rd Grade". Unrecognised grades pass
// through unchanged.
func GradeEnglish(grade string) string {
	n, ok := GradeNumber(grade)
	if !ok {
		return grade
	}
	return Ordinal(n) + " Grade"
}
