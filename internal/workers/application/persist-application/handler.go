// internal/workers/application/persist-application/handler.go
package persistapplication

import (
	"context"
	"time"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "persist-application"
)

type Handler struct {
	config *Config
	runner *camunda.JobRunner
	store  store.Store
	logger logger.Logger
}

func NewHandler(config *Config, s store.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		runner: camunda.NewJobRunner(TaskType, config.Schema, config.Timeout, log),
		store:  s,
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(h.runner, client, job, h.Execute)
}

// Execute stores a terminal outcome and returns its generated id. Store
// errors wrap ErrStorePersistFailed and are returned unchanged.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	id, err := h.store.Persist(ctx, input.Application, input.Status, input.Sanction, input.RejectionReason)
	if err != nil {
		h.logger.Error("failed to persist application", map[string]interface{}{
			"error":  err,
			"status": input.Status,
			"stage":  input.Application.Stage,
		})
		return nil, err
	}

	metrics.ApplicationsPersisted.WithLabelValues(string(input.Status)).Inc()
	h.logger.Info("application persisted", map[string]interface{}{
		"applicationId": id,
		"status":        input.Status,
	})

	return &Output{
		ApplicationID: id,
		Status:        input.Status,
		PersistedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}
