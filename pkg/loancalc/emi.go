// pkg/loancalc/emi.go
package loancalc

import "math"

// CalculateEMI returns the monthly installment for principal at
// annualRatePercent over tenureMonths, rounded to the nearest rupee:
//
//	r   = annualRatePercent / 12 / 100
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// tenureMonths must be positive; callers never pass zero. Non-positive
// tenure yields 0 rather than a division by zero.
func CalculateEMI(principal, annualRatePercent float64, tenureMonths int) int64 {
	if tenureMonths <= 0 {
		return 0
	}
	n := float64(tenureMonths)
	monthlyRate := annualRatePercent / 12 / 100
	if monthlyRate == 0 {
		return int64(math.Round(principal / n))
	}
	factor := math.Pow(1+monthlyRate, n)
	emi := principal * monthlyRate * factor / (factor - 1)
	return int64(math.Round(emi))
}

// InterestRateForScore maps a credit score to the annual rate offered at
// sanction.
func InterestRateForScore(creditScore int) float64 {
	switch {
	case creditScore >= 800:
		return 12.0
	case creditScore >= 750:
		return 13.5
	case creditScore >= 700:
		return 15.0
	case creditScore >= 650:
		return 16.5
	default:
		return 18.0
	}
}

// ScoreLabel is the band name shown next to a credit score.
func ScoreLabel(creditScore int) string {
	switch {
	case creditScore >= 750:
		return "Excellent"
	case creditScore >= 700:
		return "Good"
	case creditScore >= 650:
		return "Fair"
	default:
		return "Poor"
	}
}
