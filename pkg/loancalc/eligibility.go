// pkg/loancalc/eligibility.go
package loancalc

import (
	"fmt"
	"math"

	"loan-journey/internal/models"
)

const (
	incomeShare        = 0.6
	maxRatioPercent    = 50.0
	goodScore          = 700
	minimumScore       = 650
	reducedOfferMargin = 1.2
)

// CalculateEligibility decides whether requestedAmount can be lent over
// tenure months. It is pure: identical inputs always give identical output.
//
//	maxEligibleLoan    = monthlyIncome * 0.6 * tenure
//	finalApprovalLimit = (0.6*monthlyIncome - existingEMI) * tenure
//	emiToIncomeRatio   = (existingEMI + requestedAmount/tenure) / monthlyIncome * 100
//
// The first matching rule wins:
//  1. ratio > 50                                  -> rejected
//  2. score < 700 and requested > limit           -> rejected
//  3. score < 650                                 -> rejected
//  4. requested <= limit                          -> approved (full amount)
//  5. requested <= limit * 1.2                    -> approved_reduced (round(limit)),
//     ratio recomputed with the reduced amount
//  6. otherwise                                   -> rejected
//
// The reported MaxEligibleLoan is round(finalApprovalLimit) in every branch.
func CalculateEligibility(monthlyIncome, existingEMI, requestedAmount float64, tenure, creditScore int) models.EligibilityResult {
	t := float64(tenure)
	finalApprovalLimit := (incomeShare*monthlyIncome - existingEMI) * t
	potentialEMI := requestedAmount / t
	ratio := (existingEMI + potentialEMI) / monthlyIncome * 100

	return evaluate(eligibilityInput{
		monthlyIncome:      monthlyIncome,
		existingEMI:        existingEMI,
		requestedAmount:    requestedAmount,
		tenure:             t,
		creditScore:        creditScore,
		finalApprovalLimit: finalApprovalLimit,
		ratio:              ratio,
	})
}

// MaxEligibleLoan is the unconstrained ceiling before existing obligations.
func MaxEligibleLoan(monthlyIncome float64, tenure int) float64 {
	return monthlyIncome * incomeShare * float64(tenure)
}

type eligibilityInput struct {
	monthlyIncome      float64
	existingEMI        float64
	requestedAmount    float64
	tenure             float64
	creditScore        int
	finalApprovalLimit float64
	ratio              float64
}

func evaluate(in eligibilityInput) models.EligibilityResult {
	limit := roundHalfUp(in.finalApprovalLimit)
	result := models.EligibilityResult{
		MaxEligibleLoan:  limit,
		EMIToIncomeRatio: in.ratio,
	}

	switch {
	case in.ratio > maxRatioPercent:
		result.Decision = models.DecisionRejected
		result.Justification = fmt.Sprintf(
			"Your total EMI burden (%s%%) exceeds 50%% of your monthly income. This poses a high repayment risk. We recommend reducing existing obligations before reapplying.",
			FormatRatio(in.ratio))

	case in.creditScore < goodScore && in.requestedAmount > in.finalApprovalLimit:
		result.Decision = models.DecisionRejected
		result.Justification = fmt.Sprintf(
			"Your credit score (%d) is below 700, and the requested amount exceeds your financial capacity. Maximum eligible amount based on your income is ₹%s. Please improve your credit score or request a lower amount.",
			in.creditScore, FormatAmount(limit))

	case in.creditScore < minimumScore:
		result.Decision = models.DecisionRejected
		result.Justification = fmt.Sprintf(
			"Your credit score (%d) is below our minimum threshold of 650. We recommend improving your credit score by timely payment of existing obligations and clearing any defaults.",
			in.creditScore)

	case in.requestedAmount <= in.finalApprovalLimit:
		result.Decision = models.DecisionApproved
		result.ApprovedAmount = in.requestedAmount
		result.Justification = fmt.Sprintf(
			"Your loan request is within your approved limit. With a credit score of %d and EMI-to-income ratio of %s%%, you qualify for instant approval.",
			in.creditScore, FormatRatio(in.ratio))

	case in.requestedAmount <= in.finalApprovalLimit*reducedOfferMargin:
		result.Decision = models.DecisionApprovedReduced
		result.ApprovedAmount = limit
		result.EMIToIncomeRatio = (in.existingEMI + limit/in.tenure) / in.monthlyIncome * 100
		result.Justification = fmt.Sprintf(
			"Your requested amount exceeds your maximum eligible limit by a small margin. Based on your income and existing obligations, we can approve ₹%s, which ensures comfortable repayment within your financial capacity.",
			FormatAmount(limit))

	default:
		result.Decision = models.DecisionRejected
		result.Justification = fmt.Sprintf(
			"Your requested amount significantly exceeds your financial capacity. Maximum amount you can borrow is ₹%s. The requested amount is too high relative to your income and would pose repayment difficulties.",
			FormatAmount(limit))
	}

	return result
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
