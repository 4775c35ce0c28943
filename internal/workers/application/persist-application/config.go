// internal/workers/application/persist-application/config.go
package persistapplication

import (
	"time"

	"loan-journey/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	Schema  map[string]interface{}
}

func LoadConfig() *Config {
	cfg := &Config{Timeout: 10 * time.Second}
	if reg, err := registry.Default(); err == nil {
		cfg.Schema = reg.InputSchema(TaskType)
	}
	return cfg
}
