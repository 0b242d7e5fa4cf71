// Package money implements exact currency arithmetic on integer minor units
// (cents). Amounts only ever touch floating point at the outermost API
// boundary; everything that matters is computed on int64.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrNegativeAmount is returned when an operation requires a
	// non-negative amount.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrMalformedAmount is returned when a decimal string cannot be
	// parsed as a monetary amount.
	ErrMalformedAmount = errors.New("malformed amount")
)

// ToCents converts a decimal amount to cents, rounding half up to two places.
func ToCents(amount float64) int64 {
	if amount >= 0 {
		return int64(math.Floor(amount*100 + 0.5))
	}
	return -int64(math.Floor(-amount*100 + 0.5))
}

// FromCents converts cents back to a decimal amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Add returns a+b.
func Add(a, b int64) int64 { return a + b }

// Sub returns a-b.
func Sub(a, b int64) int64 { return a - b }

// Format renders cents as a decimal string with two places, e.g. 1250 -> "12.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Parse converts a decimal string such as "12.50", "7" or "-0.05" to cents.
// More than two fractional digits are rounded half up. The parse itself is
// pure integer arithmetic so values like 0.07 survive exactly.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedAmount)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}

	var cents int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100

	for i, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		d := int64(r - '0')
		switch i {
		case 0:
			cents += d * 10
		case 1:
			cents += d
		case 2:
			// round half up on the third fractional digit
			if d >= 5 {
				cents++
			}
		}
	}

	if neg {
		cents = -cents
	}
	return cents, nil
}
