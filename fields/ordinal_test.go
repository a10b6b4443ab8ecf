package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd",
		101: "101st", 111: "111th", 112: "112th",
	}
	for n, want := range cases {
		assert.Equal(t, want, Ordinal(n), "Ordinal(%d)", n)
	}
}

func TestGradeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{"Grade 11", 11, true},
		{"grade3", 3, true},
		{"3年级", 3, true},
		{"三年级", 3, true},
		{"十二年级", 12, true},
		{"初一", 7, true},
		{"初中二年级", 8, true},
		{"高三", 12, true},
		{"高2", 11, true},
		{"", 0, false},
		{"Kindergarten", 0, false},
		{"0", 0, false},
		{"13", 0, false},
		{"2024", 0, false},
		{"十三年级", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := GradeNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGradeEnglish(t *testing.T) {
	assert.Equal(t, "1st Grade", GradeEnglish("一年级"))
	assert.Equal(t, "11th Grade", GradeEnglish("高二"))
	assert.Equal(t, "Kindergarten", GradeEnglish("Kindergarten"))
	assert.Equal(t, "", GradeEnglish(""))
	assert.Equal(t, "2024", GradeEnglish("2024"), "out of range numbers pass through")
}
