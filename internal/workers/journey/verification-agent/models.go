// internal/workers/journey/verification-agent/models.go
package verificationagent

import "loan-journey/internal/models"

type Input struct {
	Application models.ApplicationRecord `json:"application"`
}

type Output struct {
	Responses   []models.Response        `json:"responses"`
	Application models.ApplicationRecord `json:"application"`
	Verified    bool                     `json:"verified"`
	Handoff     models.Agent             `json:"handoff,omitempty"`
}

const (
	minPhoneDigits = 10
	minNameLength  = 3
)

// Failure reasons shown to the applicant.
const (
	ReasonPhoneInvalid = "Phone number format is invalid."
	ReasonNameInvalid  = "Name validation failed."
	ReasonCRMMismatch  = "Unable to verify details in our database. This may require manual verification."
)
