package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnglishName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two characters", "张三", "Zhang, San"},
		{"three characters", "王小明", "Wang, Xiaoming"},
		{"latin passes through", "John Smith", "John Smith"},
		{"latin with digits", "Anna 2", "Anna 2"},
		{"latin with accents", "José García", "José García"},
		{"latin with diaeresis", "Zoë", "Zoë"},
		{"empty", "", ""},
		{"single character", "李", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnglishName(tt.in))
		})
	}
}
