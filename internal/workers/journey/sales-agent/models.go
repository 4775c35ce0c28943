// internal/workers/journey/sales-agent/models.go
package salesagent

import "loan-journey/internal/models"

type Input struct {
	Message     string                   `json:"message,omitempty"`
	Application models.ApplicationRecord `json:"application"`
}

type Output struct {
	Responses   []models.Response        `json:"responses"`
	Application models.ApplicationRecord `json:"application"`
	Handoff     models.Agent             `json:"handoff,omitempty"`
}

const (
	minTenureMonths = 6
	maxTenureMonths = 60
)
