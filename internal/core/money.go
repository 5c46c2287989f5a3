// Package core holds the exact-arithmetic money and calendar primitives of the
// round-up engine.
//
// All monetary math happens on integer paise (hundredths of a rupee); float64
// appears only at serialization boundaries.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Paise is a signed count of hundredths of a rupee.
type Paise int64

const (
	// RoundUnitPaise is the slab the ceiling climbs to: the next ₹100.
	RoundUnitPaise Paise = 10_000

	// MaxAmountPaise bounds every money field accepted at the API boundary
	// (exclusive). Equivalent to ₹1,00,00,000.
	MaxAmountPaise Paise = 1_000_000_000
)

// ParseAmount converts a raw JSON value to paise with half-up rounding.
//
// Accepted shapes are a finite number or a string matching [sign]digits[.digits].
// Rounding is performed on the decimal text: the first two fractional digits are
// the candidate paise and a third digit >= 5 rounds them up, carrying into the
// whole part when needed. Floats never participate in the arithmetic.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12.345") -> 1235, nil (half-up)
//	ParseAmount(-7.995)   -> -800, nil
//	ParseAmount("")       -> 0, ErrInvalidAmount
func ParseAmount(raw any) (Paise, error) {
	switch v := raw.(type) {
	case string:
		return parseDecimalText(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidAmount
		}
		// Shortest exact representation, then the text path, so rounding
		// stays decimal.
		return parseDecimalText(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return Paise(v) * 100, nil
	case int64:
		return Paise(v) * 100, nil
	default:
		return 0, ErrInvalidAmount
	}
}

func parseDecimalText(s string) (Paise, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 plus the fractional carry below.
	const maxSafeInt64 = (math.MaxInt64 - 100) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits are candidate paise; a third digit >= 5
	// rounds them up and may carry into the whole part.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	p := Paise(iv*100 + frac)
	if neg {
		p = -p
	}
	return p, nil
}

// Display returns the two-decimal rupee value for serialization. The sign is
// applied after the magnitude is assembled so a negative amount can never
// surface as negative zero.
func (p Paise) Display() float64 {
	neg := p < 0
	if neg {
		p = -p
	}
	v := float64(p/100) + float64(p%100)/100
	if neg {
		return -v
	}
	return v
}

// Rupees returns the whole-rupee part, truncated toward zero.
func (p Paise) Rupees() int64 {
	return int64(p / 100)
}

// String formats the value as a plain decimal, e.g. "12.34" or "-0.05".
func (p Paise) String() string {
	neg := p < 0
	if neg {
		p = -p
	}
	s := strconv.FormatInt(int64(p/100), 10) + "." + fmt.Sprintf("%02d", p%100)
	if neg {
		return "-" + s
	}
	return s
}

// ValidateRange rejects values outside [min, max) with a field-tagged error.
func ValidateRange(p, min, max Paise, field string) error {
	if p < min || p >= max {
		return &OutOfRangeError{Field: field, Value: p, Min: min, Max: max}
	}
	return nil
}

// CeilToSlab rounds up toward positive infinity to the next multiple of
// RoundUnitPaise. Values already on a slab are returned unchanged; negative
// values climb toward zero.
func CeilToSlab(p Paise) Paise {
	r := p % RoundUnitPaise
	switch {
	case r > 0:
		return p + RoundUnitPaise - r
	case r < 0:
		return p - r
	default:
		return p
	}
}
