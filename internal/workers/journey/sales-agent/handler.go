// internal/workers/journey/sales-agent/handler.go
package salesagent

import (
	"context"
	"fmt"
	"strings"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/validation"
	"loan-journey/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sales-agent"
)

const benefitsPitch = "🎯 **Sales Agent Here!**\n\n" +
	"Hello %s! Let me explain our loan benefits:\n\n" +
	"✅ **Quick Processing:** Approval within 24-48 hours\n" +
	"✅ **Flexible Tenure:** 6 to 60 months\n" +
	"✅ **Competitive Rates:** Starting from 12%% per annum\n" +
	"✅ **Minimal Documentation:** Easy online process\n" +
	"✅ **No Hidden Charges:** Transparent terms\n\n" +
	"Before we proceed, may I know the primary purpose for this loan?\n" +
	"(e.g., medical, education, business, wedding, home renovation, debt consolidation, etc.)"

const rateDisclosure = "Perfect! You've selected a %d-month repayment period.\n\n" +
	"💰 **Interest Rate Information:**\n" +
	"Based on your profile, the applicable interest rate will be between **12%% to 18%% per annum**.\n\n" +
	"The exact rate will be determined after credit assessment based on:\n" +
	"• Your credit score\n" +
	"• Income stability\n" +
	"• Existing obligations\n\n" +
	"Do you accept these interest rate terms?\n" +
	"Please type \"Yes\" to proceed or \"No\" to decline."

type Handler struct {
	config *Config
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		runner: camunda.NewJobRunner(TaskType, config.Schema, config.Timeout, log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(h.runner, client, job, h.Execute)
}

// Execute opens the sales conversation when the master agent hands off,
// and otherwise applies the applicant's answer.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	from := input.Application.Stage

	var out Output
	if from == models.StageDataCollectionComplete {
		out = Begin(input.Application)
	} else {
		out = Respond(input.Message, input.Application)
	}

	if out.Application.Stage != from {
		metrics.RecordTransition(string(models.AgentSales), string(out.Application.Stage))
		h.logger.Debug("stage advanced", map[string]interface{}{
			"from": from,
			"to":   out.Application.Stage,
		})
	}
	return &out, nil
}

// Begin discloses the loan benefits and asks for the purpose.
func Begin(rec models.ApplicationRecord) Output {
	rec = rec.Clone()
	rec.Stage = models.StageSalesCollectPurpose
	return Output{
		Responses:   []models.Response{models.Say(fmt.Sprintf(benefitsPitch, rec.Name))},
		Application: rec,
	}
}

// Respond handles one answer in a sales_* stage. Any other stage yields no
// responses and an unchanged record.
func Respond(message string, rec models.ApplicationRecord) Output {
	rec = rec.Clone()
	out := Output{Application: rec}

	switch rec.Stage {
	case models.StageSalesCollectPurpose:
		out.Application.LoanPurpose = message
		out.Application.Stage = models.StageSalesCollectTenure
		out.Responses = []models.Response{models.Say(fmt.Sprintf("Understood. You need this loan for %s.\n\n"+
			"What loan tenure (repayment period) would you prefer?\n\n"+
			"Please specify in months (minimum 6 months, maximum 60 months).\n"+
			"Example: Type \"12\" for 1 year, \"24\" for 2 years, etc.", message))}

	case models.StageSalesCollectTenure:
		tenure, ok := validation.ParseInteger(message)
		if !ok || tenure < minTenureMonths || tenure > maxTenureMonths {
			out.Responses = []models.Response{models.Warn("Please provide a valid tenure between 6 and 60 months.")}
			return out
		}
		out.Application.Tenure = tenure
		out.Application.Stage = models.StageSalesInterestConfirmation
		out.Responses = []models.Response{models.Say(fmt.Sprintf(rateDisclosure, tenure))}

	case models.StageSalesInterestConfirmation:
		return confirmInterest(message, out)
	}

	return out
}

// "no" is checked first, so an answer containing both declines.
func confirmInterest(message string, out Output) Output {
	answer := strings.ToLower(message)

	switch {
	case strings.Contains(answer, "no"), strings.Contains(answer, "decline"):
		out.Application.Stage = models.StageRejected
		out.Responses = []models.Response{models.Fail("We understand. Thank you for considering our loan products. " +
			"If you change your mind, feel free to reach out to us again.\n\nHave a great day!")}

	case strings.Contains(answer, "yes"), strings.Contains(answer, "accept"), strings.Contains(answer, "agree"):
		out.Application.AcceptedInterestTerms = true
		out.Application.Stage = models.StageSalesAgentComplete
		out.Handoff = models.AgentVerification
		out.Responses = []models.Response{models.Succeed("Excellent! You've accepted the interest rate terms.\n\n" +
			"✅ **Sales Verification Complete**\n\n" +
			"Now transferring you to our Verification Agent for identity and document validation...")}

	default:
		out.Responses = []models.Response{models.Warn("Please type \"Yes\" to accept or \"No\" to decline.")}
	}
	return out
}
