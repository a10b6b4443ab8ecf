package fields

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	pinyinArgs = func() pinyin.Args {
		a := pinyin.NewArgs()
		a.Style = pinyin.Normal
		// keep characters that have no reading instead of dropping them
		a.Fallback = func(r rune, a pinyin.Args) []string {
			return []string{string(r)}
		}
		return a
	}()
	titleCaser = cases.Title(language.Und)
)

// EnglishName romanizes a Chinese name into "Surname, Firstname". Names whose
// letters are all Latin script (accents included) are returned unchanged.
func EnglishName(name string) string {
	if isLatin(name) {
		return name
	}
	if utf8.RuneCountInString(name) < 2 {
		return ""
	}

	syllables := pinyin.Pinyin(name, pinyinArgs)
	if len(syllables) == 0 {
		return ""
	}

	var first strings.Builder
	for _, s := range syllables[1:] {
		if len(s) > 0 {
			first.WriteString(s[0])
		}
	}
	surname := ""
	if len(syllables[0]) > 0 {
		surname = syllables[0][0]
	}
	return capitalize(surname) + ", " + capitalize(first.String())
}

func isLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}
