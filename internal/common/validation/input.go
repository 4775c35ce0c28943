// internal/common/validation/input.go
package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Chat answers are free text; numbers are read from the leading part of the
// answer and anything after is ignored ("25 years" is 25, "abc" is no number).
var (
	leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?|Infinity)`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseAmount reads a rupee amount. The rupee sign and thousands separators
// are removed first, so "₹1,50,000" is 150000. ok is false when the answer
// does not start with a number or the number is not finite.
func ParseAmount(s string) (v float64, ok bool) {
	cleaned := strings.NewReplacer("₹", "", ",", "").Replace(s)
	v, ok = ParseFloat(cleaned)
	if !ok || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// ParseFloat reads the longest leading decimal number, after leading
// whitespace.
func ParseFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if m == "" {
		return math.NaN(), false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN(), false
	}
	return v, true
}

// ParseInteger reads the leading base-10 integer, after leading whitespace.
// Values beyond int64 saturate.
func ParseInteger(s string) (int, bool) {
	m := leadingInt.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
