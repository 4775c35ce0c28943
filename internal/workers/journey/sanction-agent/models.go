// internal/workers/journey/sanction-agent/models.go
package sanctionagent

import (
	"loan-journey/internal/models"

	"github.com/shopspring/decimal"
)

type Input struct {
	Application models.ApplicationRecord `json:"application"`
}

type Output struct {
	Responses   []models.Response        `json:"responses"`
	Application models.ApplicationRecord `json:"application"`
	Sanction    models.SanctionRecord    `json:"sanction"`
}

// processingFeeRate is charged on the sanctioned amount.
var processingFeeRate = decimal.RequireFromString("0.02")
