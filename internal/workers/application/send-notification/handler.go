// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"strconv"
	"strings"
	"time"

	awsclient "loan-journey/internal/common/aws"
	"loan-journey/internal/common/camunda"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"
	"loan-journey/pkg/loancalc"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

type template struct {
	subject string
	body    string
	sms     string
}

var templates = map[models.ApplicationStatus]template{
	models.StatusApproved: {
		subject: "Loan sanctioned: {{applicationId}}",
		body: "Application {{applicationId}} was sanctioned.\n\n" +
			"Applicant: {{name}} ({{phone}}, {{city}})\n" +
			"Amount: Rs {{amount}} over {{tenure}} months at {{rate}}%\n" +
			"EMI: Rs {{emi}}\n" +
			"Credit score: {{creditScore}}\n" +
			"Offer valid until {{expiresOn}}.",
		sms: "Hi {{name}}, your personal loan of Rs {{amount}} is sanctioned at {{rate}}% for {{tenure}} months. " +
			"EMI Rs {{emi}}. Ref {{applicationId}}. Valid until {{expiresOn}}.",
	},
	models.StatusRejected: {
		subject: "Loan declined: {{applicationId}}",
		body: "Application {{applicationId}} was declined at stage {{stage}}.\n\n" +
			"Applicant: {{name}} ({{phone}}, {{city}})\n" +
			"Requested: Rs {{requested}}\n\n" +
			"Reason:\n{{reason}}",
		sms: "Hi {{name}}, we could not approve loan application {{applicationId}} at this time. " +
			"You may reapply after 3 months.",
	},
}

type Handler struct {
	config    *Config
	runner    *camunda.JobRunner
	logger    logger.Logger
	sesClient awsclient.EmailSender
	snsClient awsclient.SMSPublisher
}

func NewHandler(config *Config, email awsclient.EmailSender, sms awsclient.SMSPublisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		runner:    camunda.NewJobRunner(TaskType, config.Schema, config.Timeout, log),
		logger:    log,
		sesClient: email,
		snsClient: sms,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(h.runner, client, job, h.Execute)
}

// NotifyDecision sends the decision notices for a stored application.
func (h *Handler) NotifyDecision(ctx context.Context, app models.StoredApplication) error {
	_, err := h.Execute(ctx, &Input{
		ApplicationID:   app.ID,
		Application:     app.Data,
		Status:          app.Status,
		Sanction:        app.Sanction,
		RejectionReason: app.RejectionReason,
	})
	return err
}

// Execute emails operations and texts the applicant about a decision.
// Statuses without a template are skipped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	tmpl, ok := templates[input.Status]
	if !ok {
		h.logger.Debug("no template for status", map[string]interface{}{"status": input.Status})
		return out, nil
	}

	data := templateData(input)

	if h.config.EmailEnabled && h.config.OpsAddress != "" && h.sesClient != nil {
		email := awsclient.BuildEmail(h.config.FromEmail, h.config.OpsAddress,
			renderTemplate(tmpl.subject, data), renderTemplate(tmpl.body, data))
		if _, err := h.sesClient.SendEmail(ctx, email); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":         err,
				"applicationId": input.ApplicationID,
			})
			return nil, apperrors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		out.Channels = append(out.Channels, ChannelEmail)
	}

	if h.config.SMSEnabled && input.Application.Phone != "" && h.snsClient != nil {
		sms := awsclient.BuildSMS(input.Application.Phone, h.config.SenderID, renderTemplate(tmpl.sms, data))
		if _, err := h.snsClient.Publish(ctx, sms); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err,
				"applicationId": input.ApplicationID,
			})
			return nil, apperrors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		out.Channels = append(out.Channels, ChannelSMS)
	}

	if len(out.Channels) > 0 {
		out.Status = StatusSent
	}

	h.logger.Info("decision notification processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        out.Status,
		"channels":      strings.Join(out.Channels, ","),
	})
	return out, nil
}

func templateData(input *Input) map[string]string {
	rec := input.Application
	data := map[string]string{
		"applicationId": input.ApplicationID,
		"name":          rec.Name,
		"phone":         rec.Phone,
		"city":          rec.City,
		"stage":         string(rec.Stage),
		"requested":     loancalc.FormatAmount(rec.LoanAmount),
		"reason":        input.RejectionReason,
	}
	if rec.CreditScore > 0 {
		data["creditScore"] = strconv.Itoa(rec.CreditScore)
	}
	if s := input.Sanction; s != nil {
		data["amount"] = loancalc.FormatAmount(s.ApprovedAmount)
		data["tenure"] = strconv.Itoa(s.Tenure)
		data["rate"] = strconv.FormatFloat(s.InterestRate, 'f', -1, 64)
		data["emi"] = loancalc.FormatAmount(float64(s.EMI))
		data["expiresOn"] = s.ExpiresAt().Format("02 Jan 2006")
	}
	return data
}

// renderTemplate substitutes {{key}} placeholders. Placeholders with no
// value are removed.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}
	return result
}
