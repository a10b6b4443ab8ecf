package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDCard(t *testing.T) {
	card, err := ParseIDCard("11010519491231002X")
	require.NoError(t, err)
	assert.Equal(t, "110105", card.Region)
	assert.True(t, card.Birth.Equal(time.Date(1949, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, card.Male)
	assert.Equal(t, "女", card.GenderZh())

	card, err = ParseIDCard("110101199003070011")
	require.NoError(t, err)
	assert.True(t, card.Male)
	assert.Equal(t, "男", card.GenderZh())

	// lowercase check digit is accepted
	_, err = ParseIDCard("11010519491231002x")
	assert.NoError(t, err)
}

func TestParseIDCardErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"1101051949123100", ErrIDCardLength},
		{"11010519491231002A", ErrIDCardChars},
		{"1101051949123100AX", ErrIDCardChars},
		{"110105194912310021", ErrIDCardChecksum},
		{"110105194913310021", ErrIDCardBirth},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseIDCard(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCleanIDNumber(t *testing.T) {
	assert.Equal(t, "110105194912310021", CleanIDNumber("'110105194912310021"))
	assert.Equal(t, "E12345678", CleanIDNumber(" ‘E12345678’ "))
}

func TestTranslations(t *testing.T) {
	assert.Equal(t, "Male", Gender("男"))
	assert.Equal(t, "Female", Gender("女性"))
	assert.Equal(t, "Other", Gender("Other"))

	assert.Equal(t, "ID Card", IDType("居民身份证"))
	assert.Equal(t, "Passport", IDType("护照"))
	assert.Equal(t, "ID Document", IDType("港澳通行证"))
}
