// internal/workers/journey/verification-agent/handler.go
package verificationagent

import (
	"context"
	"fmt"
	"unicode/utf8"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/random"
	"loan-journey/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "verification-agent"
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
	out := Verify(input.Application, h.rnd, h.config.PassRate)

	metrics.RecordTransition(string(models.AgentVerification), string(out.Application.Stage))
	if !out.Verified {
		h.logger.Warn("verification failed", map[string]interface{}{
			"reason": out.Responses[len(out.Responses)-1].Content,
		})
	}
	return &out, nil
}

// Verify runs the mock KYC check. Malformed contact details fail outright;
// well-formed ones pass when a draw from rnd falls below passRate.
func Verify(rec models.ApplicationRecord, rnd random.Source, passRate float64) Output {
	rec = rec.Clone()
	out := Output{
		Responses: []models.Response{
			models.Say("🔍 **Verification Agent Initiated**\n\nValidating your information with our CRM database..."),
		},
	}

	if reason := checkDetails(rec, rnd, passRate); reason != "" {
		rec.Stage = models.StageVerificationFailed
		out.Application = rec
		out.Responses = append(out.Responses, models.Fail(fmt.Sprintf("⚠️ **Verification Issue Detected**\n\n%s\n\n"+
			"Please contact our support team for manual verification.\n📞 1800-XXX-XXXX", reason)))
		return out
	}

	rec.Stage = models.StageVerificationComplete
	out.Application = rec
	out.Verified = true
	out.Handoff = models.AgentUnderwriting
	out.Responses = append(out.Responses, models.Succeed(fmt.Sprintf("✅ **Identity Verification Successful**\n\n"+
		"• Name: %s - Verified\n"+
		"• Phone: %s - Verified\n"+
		"• City: %s - Verified\n"+
		"• Employment: %s - Verified\n\n"+
		"All details match our records. Proceeding to credit assessment...",
		rec.Name, rec.Phone, rec.City, rec.EmploymentType)))
	return out
}

// checkDetails returns the failure reason, or "" when verified.
func checkDetails(rec models.ApplicationRecord, rnd random.Source, passRate float64) string {
	switch {
	case len(rec.Phone) < minPhoneDigits:
		return ReasonPhoneInvalid
	case utf8.RuneCountInString(rec.Name) < minNameLength:
		return ReasonNameInvalid
	case rnd.Float64() >= passRate:
		return ReasonCRMMismatch
	}
	return ""
}
