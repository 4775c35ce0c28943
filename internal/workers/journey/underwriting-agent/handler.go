// internal/workers/journey/underwriting-agent/handler.go
package underwritingagent

import (
	"context"
	"fmt"
	"strings"

	"loan-journey/internal/common/camunda"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/random"
	"loan-journey/internal/models"
	"loan-journey/pkg/loancalc"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "underwriting-agent"
)

type Handler struct {
	config *Config
	rnd    random.Source
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, rnd random.Source, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		rnd:    rnd,
		runner: camunda.NewJobRunner(TaskType, config.Schema, config.Timeout, log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(h.runner, client, job, h.Execute)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	out, err := Assess(input.Application, h.rnd)
	if err != nil {
		return nil, apperrors.NewPreconditionViolationError(err)
	}

	metrics.RecordTransition(string(models.AgentUnderwriting), string(out.Application.Stage))
	metrics.Decisions.WithLabelValues(string(out.Decision)).Inc()

	h.logger.Info("eligibility assessed", map[string]interface{}{
		"creditScore":    out.Application.CreditScore,
		"decision":       out.Decision,
		"approvedAmount": out.Application.EligibilityResult.ApprovedAmount,
	})
	return &out, nil
}

// Assess scores the applicant, runs the eligibility rules and reports the
// outcome. The record must carry income, loan amount and tenure.
func Assess(rec models.ApplicationRecord, rnd random.Source) (Output, error) {
	if err := rec.RequireUnderwritingInputs(); err != nil {
		return Output{}, err
	}
	rec = rec.Clone()

	score := CreditScore(rec, rnd)
	rec.CreditScore = score

	result := loancalc.CalculateEligibility(rec.MonthlyIncome, rec.ExistingEMI, rec.LoanAmount, rec.Tenure, score)
	rec.EligibilityResult = &result

	out := Output{
		Responses: []models.Response{
			models.Say("📊 **Underwriting Agent Initiated**\n\nPerforming credit assessment and eligibility check..."),
			models.Say(fmt.Sprintf("🔢 **Credit Score Retrieved:** %d\n\nAnalyzing your financial profile...", score)),
		},
		Decision: result.Decision,
	}

	switch result.Decision {
	case models.DecisionApproved:
		rec.Stage = models.StageUnderwritingApproved
		out.Handoff = models.AgentSanction
		out.Responses = append(out.Responses, models.Succeed(fmt.Sprintf(
			"✅ **Loan Approved!**\n\n🎉 Congratulations %s!\n\n%s\n\nProceeding to sanction letter generation...",
			rec.Name, assessmentBlock(rec, result))))

	case models.DecisionApprovedReduced:
		rec.Stage = models.StageUnderwritingApproved
		out.Handoff = models.AgentSanction
		out.Responses = append(out.Responses, models.Warn(fmt.Sprintf(
			"⚠️ **Loan Approved with Revised Amount**\n\n%s, based on your financial assessment:\n\n%s\n\n"+
				"We can approve a reduced loan amount that better matches your repayment capacity.\n\n"+
				"Proceeding to sanction letter generation...",
			rec.Name, assessmentBlock(rec, result))))

	default:
		rec.Stage = models.StageUnderwritingRejected
		out.Responses = append(out.Responses, models.Fail(declineMessage(rec, result)))
	}

	out.Application = rec
	return out, nil
}

// CreditScore is the mock bureau score: 700 adjusted for income, existing
// obligations and employment, plus a draw in [-50, 49], kept in [300, 900].
func CreditScore(rec models.ApplicationRecord, rnd random.Source) int {
	score := baseScore

	switch {
	case rec.MonthlyIncome >= 50000:
		score += 50
	case rec.MonthlyIncome >= 30000:
		score += 30
	case rec.MonthlyIncome < 20000:
		score -= 30
	}

	emiRatio := rec.ExistingEMI / rec.MonthlyIncome * 100
	switch {
	case emiRatio > 40:
		score -= 50
	case emiRatio > 30:
		score -= 30
	case emiRatio == 0:
		score += 20
	}

	if rec.EmploymentType == models.EmploymentSalaried {
		score += 20
	}

	score += rnd.IntN(2*scoreJitter) - scoreJitter

	return max(minScore, min(maxScore, score))
}

func assessmentBlock(rec models.ApplicationRecord, result models.EligibilityResult) string {
	var b strings.Builder
	b.WriteString("**Eligibility Assessment:**\n")
	fmt.Fprintf(&b, "• Credit Score: %d - %s\n", rec.CreditScore, loancalc.ScoreLabel(rec.CreditScore))
	fmt.Fprintf(&b, "• Requested Amount: ₹%s\n", loancalc.FormatAmount(rec.LoanAmount))
	fmt.Fprintf(&b, "• Approved Amount: ₹%s\n", loancalc.FormatAmount(result.ApprovedAmount))
	fmt.Fprintf(&b, "• Max Eligible Limit: ₹%s\n", loancalc.FormatAmount(result.MaxEligibleLoan))
	fmt.Fprintf(&b, "• Income-to-EMI Ratio: %s%%\n\n", loancalc.FormatRatio(result.EMIToIncomeRatio))
	b.WriteString("**Justification:**\n")
	b.WriteString(result.Justification)
	return b.String()
}

func declineMessage(rec models.ApplicationRecord, result models.EligibilityResult) string {
	var b strings.Builder
	b.WriteString("❌ **Loan Application Declined**\n\n")
	fmt.Fprintf(&b, "Dear %s, we regret to inform you that we cannot approve your loan application at this time.\n\n", rec.Name)
	b.WriteString("**Assessment Details:**\n")
	fmt.Fprintf(&b, "• Credit Score: %d - %s\n", rec.CreditScore, loancalc.ScoreLabel(rec.CreditScore))
	fmt.Fprintf(&b, "• Requested Amount: ₹%s\n", loancalc.FormatAmount(rec.LoanAmount))
	fmt.Fprintf(&b, "• Max Eligible Limit: ₹%s\n", loancalc.FormatAmount(result.MaxEligibleLoan))
	fmt.Fprintf(&b, "• Income-to-EMI Ratio: %s%%\n\n", loancalc.FormatRatio(result.EMIToIncomeRatio))
	b.WriteString("**Reason for Decline:**\n")
	b.WriteString(result.Justification)
	b.WriteString("\n\n**Recommendations:**\n")
	b.WriteString("• Improve your credit score (aim for 700+)\n")
	b.WriteString("• Reduce existing EMI obligations\n")
	b.WriteString("• Consider requesting a lower loan amount\n")
	b.WriteString("• Increase your monthly income\n\n")
	b.WriteString("You may reapply after 3 months. For queries, contact: 1800-XXX-XXXX")
	return b.String()
}
