package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`^(\d{1,12})(?:[.,](\d+))?$`)

// Amount parses a positive decimal amount into cents. Either "." or "," is
// accepted as the decimal separator and a leading or trailing "€" is
// ignored. Extra fractional digits round half away from zero, so "12.505"
// is 1251. Zero, negative and non-numeric input yield ok == false.
func Amount(s string) (cents int64, ok bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)

	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	units, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}

	frac := m[2]
	var fracCents int64
	for i := 0; i < 2; i++ {
		fracCents *= 10
		if i < len(frac) {
			fracCents += int64(frac[i] - '0')
		}
	}
	if len(frac) > 2 && frac[2] >= '5' {
		fracCents++
	}

	cents = units*100 + fracCents
	if cents <= 0 {
		return 0, false
	}
	return cents, true
}
