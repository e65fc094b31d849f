// Money parsing and handling.
//
// Amounts are carried as int64 cents so that sums over two-decimal values
// stay exact. Floats only appear at the display/JSON boundary.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// MaxAmountCents is the largest accepted amount: 999,999.99.
const MaxAmountCents int64 = 99_999_999

// Money is a currency-agnostic amount in cents.
type Money struct {
	Cents int64
}

var (
	errAmountInvalid  = errors.New("invalid amount")
	errAmountTooLarge = errors.New("amount too large")
)

// ParseAmount converts a decimal string to Money with half-up rounding on the
// third decimal place. Both dot (12.34) and comma (12,34) separators are
// accepted. Empty, non-numeric, signed, zero and negative inputs fail with
// errAmountInvalid; values above MaxAmountCents fail with errAmountTooLarge.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, errAmountInvalid
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, errAmountInvalid
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, errAmountInvalid
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, errAmountInvalid
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, errAmountInvalid
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, errAmountInvalid
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, errAmountTooLarge
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return Money{}, errAmountInvalid
	}
	if cents > MaxAmountCents {
		return Money{}, errAmountTooLarge
	}
	return Money{Cents: cents}, nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Float64 returns the amount as a float for display purposes only.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals.
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + pad2(c%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// MarshalJSON emits the amount as a plain two-decimal number, matching the
// persisted record shape exposed to callers.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
