// internal/workers/application/persist-application/models.go
package persistapplication

import "loan-journey/internal/models"

type Input struct {
	Application     models.ApplicationRecord `json:"application"`
	Status          models.ApplicationStatus `json:"status"`
	Sanction        *models.SanctionRecord   `json:"sanction,omitempty"`
	RejectionReason string                   `json:"rejectionReason,omitempty"`
}

type Output struct {
	ApplicationID string                   `json:"applicationId"`
	Status        models.ApplicationStatus `json:"status"`
	PersistedAt   string                   `json:"persistedAt"` // ISO 8601
}
