package fields

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrIDCardLength   = errors.New("id card number must have 18 characters")
	ErrIDCardChars    = errors.New("id card number contains invalid characters")
	ErrIDCardChecksum = errors.New("id card checksum mismatch")
	ErrIDCardBirth    = errors.New("id card birth date is invalid")
)

var (
	idCardWeights    = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
	idCardCheckCodes = "10X98765432"
)

// IDCard holds the fields encoded in an 18-digit resident ID card number
type IDCard struct {
	Region string
	Birth  time.Time
	Male   bool
}

// ParseIDCard validates an 18-digit resident ID number (ISO 7064 MOD 11-2)
// and extracts the region code, birth date and sex
func ParseIDCard(number string) (IDCard, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if len(number) != 18 {
		return IDCard{}, ErrIDCardLength
	}

	sum := 0
	for i := 0; i < 17; i++ {
		c := number[i]
		if c < '0' || c > '9' {
			return IDCard{}, ErrIDCardChars
		}
		sum += int(c-'0') * idCardWeights[i]
	}
	last := number[17]
	if (last < '0' || last > '9') && last != 'X' {
		return IDCard{}, ErrIDCardChars
	}
	if idCardCheckCodes[sum%11] != last {
		return IDCard{}, ErrIDCardChecksum
	}

	birth, err := time.Parse("20060102", number[6:14])
	if err != nil {
		return IDCard{}, ErrIDCardBirth
	}

	return IDCard{
		Region: number[:6],
		Birth:  birth,
		Male:   (number[16]-'0')%2 == 1,
	}, nil
}

// GenderZh returns 男 or 女
func (c IDCard) GenderZh() string {
	if c.Male {
		return "男"
	}
	return "女"
}
