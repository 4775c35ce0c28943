// pkg/loancalc/format.go
package loancalc

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders v with Indian digit grouping (12,34,567) and at most
// three fraction digits, trailing zeros trimmed. Non-finite values render
// as NaN or ∞.
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	s := decimal.NewFromFloat(v).Round(3).String()

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	grouped := groupIndian(intPart)
	if hasFrac {
		grouped += "." + frac
	}
	if neg && grouped != "0" {
		return "-" + grouped
	}
	return grouped
}

// FormatRatio renders a percentage with one decimal place.
func FormatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
