package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"slash with time", "2010/05/03 08:30:00", time.Date(2010, 5, 3, 8, 30, 0, 0, time.UTC), true},
		{"slash", "2010/5/3", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"us style", "05/03/2010", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"iso", "2010-05-03", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"year month", "2024-08", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), true},
		{"dotted", "2010.5.3", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"compact", "20100503", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"padded", "  2010-05-03 ", time.Date(2010, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"words", "May 3rd", time.Time{}, false},
		{"bad month", "2010-13-01", time.Time{}, false},
		{"bad day", "2010/02/30", time.Time{}, false},
		{"year only", "2010", time.Time{}, false},
		{"chinese", "2010年5月3日", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestFormatDates(t *testing.T) {
	d := time.Date(2009, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2009年03月07日", FormatZh(d))
	assert.Equal(t, "March 07, 2009", FormatEn(d))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "September", MonthName(9))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, Unknown, MonthName(0))
	assert.Equal(t, Unknown, MonthName(13))
}
