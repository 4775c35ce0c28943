// internal/workers/journey/master-agent/handler.go
package masteragent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/validation"
	"loan-journey/internal/models"
	"loan-journey/pkg/loancalc"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "master-agent"
)

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

// Execute advances the collection dialogue by one applicant message.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	from := input.Application.Stage
	out := Advance(input.Message, input.Application)

	if out.Application.Stage != from {
		metrics.RecordTransition(string(models.AgentMaster), string(out.Application.Stage))
		h.logger.Debug("stage advanced", map[string]interface{}{
			"from": from,
			"to":   out.Application.Stage,
		})
	}
	return &out, nil
}

// Advance applies one message to the record. Invalid answers produce a
// warning and leave the record untouched.
func Advance(message string, rec models.ApplicationRecord) Output {
	rec = rec.Clone()

	switch rec.Stage {
	case models.StageGreeting:
		return collectName(message, rec)
	case models.StageCollectAge:
		return collectAge(message, rec)
	case models.StageCollectEmployment:
		return collectEmployment(message, rec)
	case models.StageCollectIncome:
		return collectIncome(message, rec)
	case models.StageCollectExistingEMI:
		return collectExistingEMI(message, rec)
	case models.StageCollectLoanAmount:
		return collectLoanAmount(message, rec)
	case models.StageCollectCity:
		return collectCity(message, rec)
	case models.StageCollectPhone:
		return collectPhone(message, rec)
	default:
		return reply(rec, models.Say("I didn't quite understand that. Could you please rephrase?"))
	}
}

func reply(rec models.ApplicationRecord, responses ...models.Response) Output {
	return Output{Responses: responses, Application: rec}
}

func collectName(message string, rec models.ApplicationRecord) Output {
	name := strings.TrimSpace(message)
	rec.Name = name
	rec.Stage = models.StageCollectAge
	return reply(rec, models.Say(fmt.Sprintf("Thank you, %s! Nice to meet you.\n\nMay I know your age?", name)))
}

func collectAge(message string, rec models.ApplicationRecord) Output {
	age, ok := validation.ParseInteger(message)
	if !ok || age < minAge || age > maxAge {
		return reply(rec, models.Warn("Please provide a valid age between 18 and 100."))
	}

	if age < minApplicantAge {
		rec.Stage = models.StageRejected
		return reply(rec, models.Fail("I apologize, but we require applicants to be at least 21 years old. "+
			"Unfortunately, we cannot proceed with your application at this time.\n\n"+
			"You may reapply once you meet the age criteria.\n\nThank you for your interest."))
	}

	rec.Age = age
	rec.Stage = models.StageCollectEmployment
	return reply(rec, models.Say("Great! Now, what is your employment type?\n\nPlease type:\n"+
		"• \"Salaried\" if you are employed\n"+
		"• \"Self-employed\" if you run your own business"))
}

func collectEmployment(message string, rec models.ApplicationRecord) Output {
	answer := strings.ToLower(message)

	switch {
	case strings.Contains(answer, "salaried"):
		rec.EmploymentType = models.EmploymentSalaried
	case strings.Contains(answer, "self"), strings.Contains(answer, "business"):
		rec.EmploymentType = models.EmploymentSelfEmployed
	case strings.Contains(answer, "unemployed"), strings.Contains(answer, "no"):
		rec.Stage = models.StageRejected
		return reply(rec, models.Fail("I apologize, but we require applicants to have a stable source of income. "+
			"Unfortunately, we cannot proceed with your application at this time.\n\nThank you for your interest."))
	default:
		return reply(rec, models.Warn("Please specify either \"Salaried\" or \"Self-employed\"."))
	}

	rec.Stage = models.StageCollectIncome
	return reply(rec, models.Say(fmt.Sprintf("Perfect! You are %s.\n\nWhat is your monthly income? (in ₹)", rec.EmploymentType)))
}

func collectIncome(message string, rec models.ApplicationRecord) Output {
	income, ok := validation.ParseAmount(message)
	if !ok || math.IsNaN(income) || income <= 0 {
		return reply(rec, models.Warn("Please provide a valid income amount in numbers (e.g., 50000)."))
	}

	if income < minMonthlyIncome {
		rec.Stage = models.StageRejected
		return reply(rec, models.Fail(fmt.Sprintf("I apologize, but we require a minimum monthly income of ₹15,000. "+
			"Unfortunately, with an income of ₹%s, we cannot proceed with your application.\n\nThank you for your interest.",
			loancalc.FormatAmount(income))))
	}

	rec.MonthlyIncome = income
	rec.Stage = models.StageCollectExistingEMI
	return reply(rec, models.Say("Excellent! Your income qualifies for our loan products.\n\n"+
		"Do you have any existing EMIs (loan repayments)? If yes, what is your total monthly EMI amount? "+
		"If no, please type \"0\"."))
}

func collectExistingEMI(message string, rec models.ApplicationRecord) Output {
	emi, ok := validation.ParseAmount(message)
	if !ok || math.IsNaN(emi) || emi < 0 {
		return reply(rec, models.Warn("Please provide a valid EMI amount or type \"0\" if you have no existing EMIs."))
	}

	rec.ExistingEMI = emi
	rec.Stage = models.StageCollectLoanAmount

	if emi > 0 {
		return reply(rec, models.Say(fmt.Sprintf("Noted. You have an existing EMI of ₹%s per month.\n\n"+
			"How much loan amount are you looking for? (in ₹)", loancalc.FormatAmount(emi))))
	}
	return reply(rec, models.Say("Great! You have no existing EMIs.\n\nHow much loan amount are you looking for? (in ₹)"))
}

func collectLoanAmount(message string, rec models.ApplicationRecord) Output {
	amount, ok := validation.ParseAmount(message)
	if !ok || math.IsNaN(amount) || amount <= 0 {
		return reply(rec, models.Warn("Please provide a valid loan amount in numbers."))
	}
	if amount < minLoanAmount {
		return reply(rec, models.Warn("We offer personal loans starting from ₹10,000. Please enter a higher amount."))
	}

	rec.LoanAmount = amount
	rec.Stage = models.StageCollectCity
	return reply(rec, models.Say(fmt.Sprintf("You're requesting a loan of ₹%s.\n\nWhich city do you reside in?",
		loancalc.FormatAmount(amount))))
}

func collectCity(message string, rec models.ApplicationRecord) Output {
	rec.City = message
	rec.Stage = models.StageCollectPhone
	return reply(rec, models.Say(fmt.Sprintf("Thank you! Location: %s.\n\nPlease provide your mobile number for verification.", message)))
}

func collectPhone(message string, rec models.ApplicationRecord) Output {
	phone := validation.DigitsOnly(message)
	if len(phone) < minPhoneDigits {
		return reply(rec, models.Warn("Please provide a valid 10-digit mobile number."))
	}

	rec.Phone = phone
	rec.Stage = models.StageDataCollectionComplete

	out := reply(rec, models.Succeed(summary(rec)))
	out.Handoff = models.AgentSales
	return out
}

func summary(rec models.ApplicationRecord) string {
	var b strings.Builder
	b.WriteString("Perfect! I have collected all the mandatory information.\n\n")
	b.WriteString("📋 **Application Summary:**\n")
	fmt.Fprintf(&b, "• Name: %s\n", rec.Name)
	fmt.Fprintf(&b, "• Age: %d\n", rec.Age)
	fmt.Fprintf(&b, "• Employment: %s\n", rec.EmploymentType)
	fmt.Fprintf(&b, "• Monthly Income: ₹%s\n", loancalc.FormatAmount(rec.MonthlyIncome))
	fmt.Fprintf(&b, "• Existing EMI: ₹%s\n", loancalc.FormatAmount(rec.ExistingEMI))
	fmt.Fprintf(&b, "• Loan Required: ₹%s\n", loancalc.FormatAmount(rec.LoanAmount))
	fmt.Fprintf(&b, "• City: %s\n", rec.City)
	fmt.Fprintf(&b, "• Phone: %s\n\n", rec.Phone)
	b.WriteString("Let me now connect you with our Sales Agent to discuss loan benefits and terms.")
	return b.String()
}
