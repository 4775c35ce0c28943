// internal/models/application.go
package models

import (
	"fmt"
	"time"

	apperrors "loan-journey/internal/common/errors"
)

// EmploymentType is the applicant's declared employment category.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "Salaried"
	EmploymentSelfEmployed EmploymentType = "Self-employed"
)

// ApplicationRecord is the applicant data collected across the journey.
//
// It is passed and returned by value: each stage machine receives a copy and
// hands back a new one. Fields are written once by their owning stage; only
// Stage, CreditScore and EligibilityResult are added later.
//
// Required-by-stage:
//   - underwriting: MonthlyIncome > 0, LoanAmount > 0, Tenure > 0
//   - sanction:     CreditScore set, EligibilityResult.ApprovedAmount > 0, Tenure > 0
type ApplicationRecord struct {
	Stage                 Stage              `json:"stage"`
	Name                  string             `json:"name,omitempty"`
	Age                   int                `json:"age,omitempty"`
	EmploymentType        EmploymentType     `json:"employmentType,omitempty"`
	MonthlyIncome         float64            `json:"monthlyIncome,omitempty"`
	ExistingEMI           float64            `json:"existingEMI"`
	LoanAmount            float64            `json:"loanAmount,omitempty"`
	City                  string             `json:"city,omitempty"`
	Phone                 string             `json:"phone,omitempty"`
	LoanPurpose           string             `json:"loanPurpose,omitempty"`
	Tenure                int                `json:"tenure,omitempty"`
	AcceptedInterestTerms bool               `json:"acceptedInterestTerms"`
	CreditScore           int                `json:"creditScore,omitempty"`
	EligibilityResult     *EligibilityResult `json:"eligibilityResult,omitempty"`
}

// NewApplicationRecord returns a record positioned at the greeting stage.
func NewApplicationRecord() ApplicationRecord {
	return ApplicationRecord{Stage: StageGreeting}
}

// Clone returns a deep copy so the eligibility result is never shared.
func (r ApplicationRecord) Clone() ApplicationRecord {
	out := r
	if r.EligibilityResult != nil {
		res := *r.EligibilityResult
		out.EligibilityResult = &res
	}
	return out
}

// RequireUnderwritingInputs checks the fields the underwriting step reads.
func (r ApplicationRecord) RequireUnderwritingInputs() error {
	switch {
	case r.MonthlyIncome <= 0:
		return fmt.Errorf("%w: monthlyIncome missing", apperrors.ErrPreconditionViolation)
	case r.LoanAmount <= 0:
		return fmt.Errorf("%w: loanAmount missing", apperrors.ErrPreconditionViolation)
	case r.Tenure <= 0:
		return fmt.Errorf("%w: tenure missing", apperrors.ErrPreconditionViolation)
	}
	return nil
}

// RequireSanctionInputs checks the fields the sanction step reads.
func (r ApplicationRecord) RequireSanctionInputs() error {
	switch {
	case r.CreditScore == 0:
		return fmt.Errorf("%w: creditScore missing", apperrors.ErrPreconditionViolation)
	case r.EligibilityResult == nil:
		return fmt.Errorf("%w: eligibilityResult missing", apperrors.ErrPreconditionViolation)
	case r.EligibilityResult.ApprovedAmount <= 0:
		return fmt.Errorf("%w: approvedAmount missing", apperrors.ErrPreconditionViolation)
	case r.Tenure <= 0:
		return fmt.Errorf("%w: tenure missing", apperrors.ErrPreconditionViolation)
	}
	return nil
}

// Decision is the outcome of the eligibility calculation.
type Decision string

const (
	DecisionApproved        Decision = "approved"
	DecisionApprovedReduced Decision = "approved_reduced"
	DecisionRejected        Decision = "rejected"
)

// EligibilityResult is produced once, by underwriting.
type EligibilityResult struct {
	Decision         Decision `json:"decision"`
	ApprovedAmount   float64  `json:"approvedAmount"`
	MaxEligibleLoan  float64  `json:"maxEligibleLoan"`
	EMIToIncomeRatio float64  `json:"emiToIncomeRatio"` // percent
	Justification    string   `json:"justification"`
}

// SanctionValidityDays is how long a sanction offer stays open.
const SanctionValidityDays = 15

// SanctionRecord is the final approved-loan offer.
type SanctionRecord struct {
	ApprovedAmount float64   `json:"approvedAmount"`
	Tenure         int       `json:"tenure"`
	InterestRate   float64   `json:"interestRate"`
	EMI            int64     `json:"emi"`
	ProcessingFee  int64     `json:"processingFee"`
	TotalInterest  float64   `json:"totalInterest"`
	TotalRepayment int64     `json:"totalRepayment"`
	ValidityDays   int       `json:"validity"`
	IssuedAt       time.Time `json:"dateOfIssue"`
}

// ExpiresAt is the last instant the sanction can be accepted.
func (s SanctionRecord) ExpiresAt() time.Time {
	return s.IssuedAt.AddDate(0, 0, s.ValidityDays)
}
