// internal/models/stage.go
package models

import "strings"

// Stage identifies the position of an application within the journey.
type Stage string

const (
	// Master agent
	StageGreeting               Stage = "greeting"
	StageCollectAge             Stage = "collect_age"
	StageCollectEmployment      Stage = "collect_employment"
	StageCollectIncome          Stage = "collect_income"
	StageCollectExistingEMI     Stage = "collect_existing_emi"
	StageCollectLoanAmount      Stage = "collect_loan_amount"
	StageCollectCity            Stage = "collect_city"
	StageCollectPhone           Stage = "collect_phone"
	StageDataCollectionComplete Stage = "data_collection_complete"

	// Sales agent
	StageSalesCollectPurpose       Stage = "sales_collect_purpose"
	StageSalesCollectTenure        Stage = "sales_collect_tenure"
	StageSalesInterestConfirmation Stage = "sales_interest_confirmation"
	StageSalesAgentComplete        Stage = "sales_agent_complete"

	// Worker agents
	StageVerificationComplete Stage = "verification_complete"
	StageVerificationFailed   Stage = "verification_failed"
	StageUnderwritingApproved Stage = "underwriting_approved"
	StageUnderwritingRejected Stage = "underwriting_rejected"
	StageCompleted            Stage = "completed"

	StageRejected Stage = "rejected"
)

var knownStages = map[Stage]struct{}{
	StageGreeting: {}, StageCollectAge: {}, StageCollectEmployment: {},
	StageCollectIncome: {}, StageCollectExistingEMI: {}, StageCollectLoanAmount: {},
	StageCollectCity: {}, StageCollectPhone: {}, StageDataCollectionComplete: {},
	StageSalesCollectPurpose: {}, StageSalesCollectTenure: {},
	StageSalesInterestConfirmation: {}, StageSalesAgentComplete: {},
	StageVerificationComplete: {}, StageVerificationFailed: {},
	StageUnderwritingApproved: {}, StageUnderwritingRejected: {},
	StageCompleted: {}, StageRejected: {},
}

// Valid reports whether s is one of the declared stages.
func (s Stage) Valid() bool {
	_, ok := knownStages[s]
	return ok
}

// IsSales reports whether messages at this stage belong to the sales agent.
func (s Stage) IsSales() bool {
	return strings.HasPrefix(string(s), "sales_")
}

// IsTerminal reports whether the journey can make no further progress.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageRejected, StageCompleted, StageVerificationFailed, StageUnderwritingRejected:
		return true
	default:
		return false
	}
}

// Agent names the component that owns a stage.
type Agent string

const (
	AgentMaster       Agent = "master"
	AgentSales        Agent = "sales"
	AgentVerification Agent = "verification"
	AgentUnderwriting Agent = "underwriting"
	AgentSanction     Agent = "sanction"
)
