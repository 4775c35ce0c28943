// internal/workers/journey/verification-agent/config.go
package verificationagent

import (
	"time"

	"loan-journey/internal/common/config"
	"loan-journey/pkg/registry"
)

const defaultPassRate = 0.95

type Config struct {
	Timeout time.Duration
	Schema  map[string]interface{}
	// PassRate is the share of well-formed applicants the mock CRM check
	// accepts.
	PassRate float64
}

func LoadConfig(journey config.JourneyConfig) *Config {
	cfg := &Config{
		Timeout:  10 * time.Second,
		PassRate: journey.VerificationPassRate,
	}
	if cfg.PassRate <= 0 || cfg.PassRate > 1 {
		cfg.PassRate = defaultPassRate
	}
	if reg, err := registry.Default(); err == nil {
		cfg.Schema = reg.InputSchema(TaskType)
	}
	return cfg
}
