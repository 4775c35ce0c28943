// internal/workers/journey/master-agent/models.go
package masteragent

import "loan-journey/internal/models"

type Input struct {
	Message     string                   `json:"message"`
	Application models.ApplicationRecord `json:"application"`
}

type Output struct {
	Responses   []models.Response        `json:"responses"`
	Application models.ApplicationRecord `json:"application"`
	// Handoff names the agent that should run next without waiting for
	// the applicant. Empty when the journey waits for input.
	Handoff models.Agent `json:"handoff,omitempty"`
}

const (
	minAge           = 18
	maxAge           = 100
	minApplicantAge  = 21
	minMonthlyIncome = 15000
	minLoanAmount    = 10000
	minPhoneDigits   = 10
)
