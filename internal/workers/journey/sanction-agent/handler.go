// internal/workers/journey/sanction-agent/handler.go
package sanctionagent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"loan-journey/internal/common/camunda"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/models"
	"loan-journey/pkg/loancalc"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "sanction-agent"
)

type Handler struct {
	config *Config
	now    func() time.Time
	runner *camunda.JobRunner
	logger logger.Logger
}

// NewHandler builds the sanction handler. now stamps the issue date; nil
// means the wall clock.
func NewHandler(config *Config, now func() time.Time, log logger.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		now:    now,
		runner: camunda.NewJobRunner(TaskType, config.Schema, config.Timeout, log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(h.runner, client, job, h.Execute)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	out, err := Sanction(input.Application, h.now().UTC())
	if err != nil {
		return nil, apperrors.NewPreconditionViolationError(err)
	}

	metrics.RecordTransition(string(models.AgentSanction), string(out.Application.Stage))
	h.logger.Info("sanction issued", map[string]interface{}{
		"approvedAmount": out.Sanction.ApprovedAmount,
		"interestRate":   out.Sanction.InterestRate,
		"emi":            out.Sanction.EMI,
	})
	return &out, nil
}

// Sanction prices the approved loan and completes the journey.
func Sanction(rec models.ApplicationRecord, issuedAt time.Time) (Output, error) {
	if err := rec.RequireSanctionInputs(); err != nil {
		return Output{}, err
	}
	rec = rec.Clone()

	s := Price(rec.EligibilityResult.ApprovedAmount, rec.Tenure, rec.CreditScore, issuedAt)
	rec.Stage = models.StageCompleted

	return Output{
		Responses: []models.Response{
			models.Say("📄 **Sanction Agent Initiated**\n\nGenerating your sanction letter..."),
			models.Succeed(letter(rec.Name, s)),
		},
		Application: rec,
		Sanction:    s,
	}, nil
}

// Price computes the sanction terms for an approved amount.
func Price(approved float64, tenure, creditScore int, issuedAt time.Time) models.SanctionRecord {
	rate := loancalc.InterestRateForScore(creditScore)
	emi := loancalc.CalculateEMI(approved, rate, tenure)
	fee := decimal.NewFromFloat(approved).Mul(processingFeeRate).Round(0).IntPart()
	totalRepayment := emi * int64(tenure)
	totalInterest, _ := decimal.NewFromInt(totalRepayment).Sub(decimal.NewFromFloat(approved)).Float64()

	return models.SanctionRecord{
		ApprovedAmount: approved,
		Tenure:         tenure,
		InterestRate:   rate,
		EMI:            emi,
		ProcessingFee:  fee,
		TotalInterest:  totalInterest,
		TotalRepayment: totalRepayment,
		ValidityDays:   models.SanctionValidityDays,
		IssuedAt:       issuedAt,
	}
}

func letter(name string, s models.SanctionRecord) string {
	var b strings.Builder
	b.WriteString("✅ **Sanction Letter Generated Successfully!**\n\n")
	fmt.Fprintf(&b, "Dear %s,\n\nCongratulations! Your personal loan has been sanctioned.\n\n", name)
	b.WriteString("**Loan Summary:**\n")
	fmt.Fprintf(&b, "• Sanctioned Amount: ₹%s\n", loancalc.FormatAmount(s.ApprovedAmount))
	fmt.Fprintf(&b, "• Tenure: %d months\n", s.Tenure)
	fmt.Fprintf(&b, "• Interest Rate: %s%% per annum\n", strconv.FormatFloat(s.InterestRate, 'f', -1, 64))
	fmt.Fprintf(&b, "• Monthly EMI: ₹%s\n", loancalc.FormatAmount(float64(s.EMI)))
	fmt.Fprintf(&b, "• Processing Fee: ₹%s\n", loancalc.FormatAmount(float64(s.ProcessingFee)))
	fmt.Fprintf(&b, "• Total Interest: ₹%s\n", loancalc.FormatAmount(s.TotalInterest))
	fmt.Fprintf(&b, "• Total Repayment: ₹%s\n\n", loancalc.FormatAmount(float64(s.TotalRepayment)))
	b.WriteString("Your detailed sanction letter is now ready for download.\n\n")
	b.WriteString("🎉 Thank you for choosing our NBFC services!")
	return b.String()
}
