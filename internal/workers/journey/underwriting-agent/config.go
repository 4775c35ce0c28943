// internal/workers/journey/underwriting-agent/config.go
package underwritingagent

import (
	"time"

	"loan-journey/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	Schema  map[string]interface{}
}

func LoadConfig() *Config {
	reg, err := registry.Default()
	if err != nil {
		return &Config{Timeout: 10 * time.Second}
	}
	return &Config{
		Timeout: 10 * time.Second,
		Schema:  reg.InputSchema(TaskType),
	}
}
