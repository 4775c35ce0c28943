// internal/workers/application/send-notification/models.go
package sendnotification

import "loan-journey/internal/models"

type Input struct {
	ApplicationID   string                   `json:"applicationId"`
	Application     models.ApplicationRecord `json:"application"`
	Status          models.ApplicationStatus `json:"status"`
	Sanction        *models.SanctionRecord   `json:"sanction,omitempty"`
	RejectionReason string                   `json:"rejectionReason,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "disabled"
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
