// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"context"
	"fmt"
	"time"

	awsclient "loan-journey/internal/common/aws"
	"loan-journey/internal/common/config"
	"loan-journey/internal/common/logger"
	"loan-journey/pkg/registry"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	OpsAddress   string
	SenderID     string
	AWSRegion    string
	Timeout      time.Duration
	Schema       map[string]interface{}
}

func LoadConfig(n config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: n.Enabled && n.Email.Enabled,
		SMSEnabled:   n.Enabled && n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		OpsAddress:   n.Email.OpsAddress,
		SenderID:     n.SMS.SenderID,
		AWSRegion:    n.AWS.Region,
		Timeout:      30 * time.Second,
	}
	if reg, err := registry.Default(); err == nil {
		cfg.Schema = reg.InputSchema(TaskType)
	}
	return cfg
}

// NewFromConfig builds the handler with real SES and SNS clients for the
// enabled channels.
func NewFromConfig(ctx context.Context, n config.NotificationConfig, log logger.Logger) (*Handler, error) {
	cfg := LoadConfig(n)

	var (
		email awsclient.EmailSender
		sms   awsclient.SMSPublisher
	)
	if cfg.EmailEnabled {
		c, err := awsclient.NewSESClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		email = c
	}
	if cfg.SMSEnabled {
		c, err := awsclient.NewSNSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		sms = c
	}
	return NewHandler(cfg, email, sms, log), nil
}
