// internal/workers/journey/underwriting-agent/models.go
package underwritingagent

import "loan-journey/internal/models"

type Input struct {
	Application models.ApplicationRecord `json:"application"`
}

type Output struct {
	Responses   []models.Response        `json:"responses"`
	Application models.ApplicationRecord `json:"application"`
	Decision    models.Decision          `json:"decision"`
	Handoff     models.Agent             `json:"handoff,omitempty"`
}

// Mock bureau scoring.
const (
	baseScore   = 700
	minScore    = 300
	maxScore    = 900
	scoreJitter = 50
)
