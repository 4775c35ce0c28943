// internal/workers/application/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-journey/internal/common/config"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "noreply@lender.example",
		OpsAddress:   "credit-ops@lender.example",
		SenderID:     "NBFCLN",
		AWSRegion:    "ap-south-1",
		Timeout:      30 * time.Second,
	}
}

var issuedAt = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

func approvedInput() *Input {
	return &Input{
		ApplicationID: "APP-1742464800000-K3J9X2M1Q",
		Application: models.ApplicationRecord{
			Stage:       models.StageCompleted,
			Name:        "Lakshmi",
			Phone:       "9876543210",
			City:        "Chennai",
			LoanAmount:  500000,
			Tenure:      36,
			CreditScore: 760,
		},
		Status: models.StatusApproved,
		Sanction: &models.SanctionRecord{
			ApprovedAmount: 500000,
			Tenure:         36,
			InterestRate:   13.5,
			EMI:            16968,
			ProcessingFee:  10000,
			TotalRepayment: 610848,
			TotalInterest:  110848,
			ValidityDays:   models.SanctionValidityDays,
			IssuedAt:       issuedAt,
		},
	}
}

func rejectedInput() *Input {
	return &Input{
		ApplicationID: "APP-1742464800000-ABCDEFGHI",
		Application: models.ApplicationRecord{
			Stage:      models.StageUnderwritingRejected,
			Name:       "Vikram",
			Phone:      "9123456780",
			City:       "Pune",
			LoanAmount: 1500000,
		},
		Status:          models.StatusRejected,
		RejectionReason: "EMI to income ratio too high",
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Approved(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h := NewHandler(createTestConfig(), sesMock, snsMock, newTestLogger(t))

	out, err := h.Execute(context.Background(), approvedInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, []string{ChannelEmail, ChannelSMS}, out.Channels)
	assert.NotEmpty(t, out.NotificationID)
	_, err = time.Parse(time.RFC3339, out.SentAt)
	assert.NoError(t, err)

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, "noreply@lender.example", *email.Source)
	assert.Equal(t, []string{"credit-ops@lender.example"}, email.Destination.ToAddresses)
	assert.Equal(t, "Loan sanctioned: APP-1742464800000-K3J9X2M1Q", *email.Message.Subject.Data)
	body := *email.Message.Body.Text.Data
	assert.Contains(t, body, "Amount: Rs 5,00,000 over 36 months at 13.5%")
	assert.Contains(t, body, "EMI: Rs 16,968")
	assert.Contains(t, body, "Credit score: 760")
	assert.Contains(t, body, "Offer valid until 04 Apr 2025.")

	require.Len(t, snsMock.calls, 1)
	sms := snsMock.calls[0]
	assert.Equal(t, "+919876543210", *sms.PhoneNumber)
	assert.Contains(t, *sms.Message, "Hi Lakshmi, your personal loan of Rs 5,00,000 is sanctioned at 13.5%")
	assert.NotContains(t, *sms.Message, "{{")
}

func TestHandler_Execute_Rejected(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h := NewHandler(createTestConfig(), sesMock, snsMock, newTestLogger(t))

	out, err := h.Execute(context.Background(), rejectedInput())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)

	require.Len(t, sesMock.calls, 1)
	body := *sesMock.calls[0].Message.Body.Text.Data
	assert.Contains(t, body, "declined at stage underwriting_rejected")
	assert.Contains(t, body, "Requested: Rs 15,00,000")
	assert.Contains(t, body, "Reason:\nEMI to income ratio too high")

	require.Len(t, snsMock.calls, 1)
	assert.Contains(t, *snsMock.calls[0].Message, "could not approve loan application APP-1742464800000-ABCDEFGHI")
}

func TestHandler_Execute_ChannelSelection(t *testing.T) {
	tests := []struct {
		name         string
		emailEnabled bool
		smsEnabled   bool
		phone        string
		wantStatus   string
		wantChannels []string
	}{
		{"email only", true, false, "9876543210", StatusSent, []string{ChannelEmail}},
		{"sms only", false, true, "9876543210", StatusSent, []string{ChannelSMS}},
		{"sms skipped without phone", false, true, "", StatusDisabled, nil},
		{"both disabled", false, false, "9876543210", StatusDisabled, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			cfg.EmailEnabled = tt.emailEnabled
			cfg.SMSEnabled = tt.smsEnabled
			sesMock := &MockSESService{}
			snsMock := &MockSNSService{}
			h := NewHandler(cfg, sesMock, snsMock, newTestLogger(t))

			input := approvedInput()
			input.Application.Phone = tt.phone
			out, err := h.Execute(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantChannels, out.Channels)
		})
	}
}

func TestHandler_Execute_UnknownStatusIsSkipped(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h := NewHandler(createTestConfig(), sesMock, snsMock, newTestLogger(t))

	input := approvedInput()
	input.Status = models.StatusPending
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		ses     *MockSESService
		sns     *MockSNSService
		channel string
	}{
		{
			name: "SES failure",
			ses: &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("MessageRejected: Email address is not verified")
			}},
			sns:     &MockSNSService{},
			channel: ChannelEmail,
		},
		{
			name: "SNS failure",
			ses:  &MockSESService{},
			sns: &MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return nil, errors.New("Throttling: Rate exceeded")
			}},
			channel: ChannelSMS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), tt.ses, tt.sns, newTestLogger(t))

			out, err := h.Execute(context.Background(), approvedInput())
			assert.Nil(t, out)
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
			assert.True(t, stdErr.Retryable)
			assert.Contains(t, stdErr.Details, tt.channel)
		})
	}
}

func TestHandler_NotifyDecision(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h := NewHandler(createTestConfig(), sesMock, snsMock, newTestLogger(t))

	in := rejectedInput()
	err := h.NotifyDecision(context.Background(), models.StoredApplication{
		ID:              in.ApplicationID,
		Data:            in.Application,
		Status:          in.Status,
		RejectionReason: in.RejectionReason,
	})
	require.NoError(t, err)
	assert.Len(t, sesMock.calls, 1)
	assert.Len(t, snsMock.calls, 1)
}

// ==========================
// Template Tests
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{
			name:     "simple replacement",
			template: "Hello {{name}}!",
			data:     map[string]string{"name": "Lakshmi"},
			expected: "Hello Lakshmi!",
		},
		{
			name:     "multiple replacements",
			template: "{{name}} from {{city}}",
			data:     map[string]string{"name": "Vikram", "city": "Pune"},
			expected: "Vikram from Pune",
		},
		{
			name:     "missing placeholder removed",
			template: "EMI Rs {{emi}}.",
			data:     map[string]string{},
			expected: "EMI Rs .",
		},
		{
			name:     "unterminated placeholder kept",
			template: "Ref {{applicationId",
			data:     map[string]string{},
			expected: "Ref {{applicationId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(tt.template, tt.data))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	n := config.NotificationConfig{Enabled: true}
	n.Email.Enabled = true
	n.Email.FromEmail = "loans@example.com"
	n.Email.OpsAddress = "ops@example.com"
	n.SMS.Enabled = false
	n.AWS.Region = "ap-south-1"

	cfg := LoadConfig(n)
	assert.True(t, cfg.EmailEnabled)
	assert.False(t, cfg.SMSEnabled)
	assert.Equal(t, "ops@example.com", cfg.OpsAddress)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.Schema)

	n.Enabled = false
	off := LoadConfig(n)
	assert.False(t, off.EmailEnabled)
	assert.False(t, off.SMSEnabled)
}

func TestNewFromConfig_DisabledNeedsNoClients(t *testing.T) {
	h, err := NewFromConfig(context.Background(), config.NotificationConfig{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Nil(t, h.sesClient)
	assert.Nil(t, h.snsClient)
}
