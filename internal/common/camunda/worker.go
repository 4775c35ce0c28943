// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"loan-journey/internal/common/config"
	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/metrics"
	"loan-journey/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobRecorder receives one observation per finished job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

type recorderHolder struct{ JobRecorder }

var defaultRecorder atomic.Value

// SetJobRecorder installs the recorder used by job runners built afterwards.
func SetJobRecorder(r JobRecorder) {
	defaultRecorder.Store(recorderHolder{r})
}

func currentRecorder() JobRecorder {
	if h, ok := defaultRecorder.Load().(recorderHolder); ok {
		return h.JobRecorder
	}
	return nil
}

// JobRunner carries what every journey worker needs to turn a Zeebe job
// into a call to its Execute method.
type JobRunner struct {
	TaskType string
	Schema   map[string]interface{}
	Timeout  time.Duration
	Logger   logger.Logger
	Errors   *apperrors.ErrorHandler
	Retry    *RetryConfig
	Recorder JobRecorder
}

func NewJobRunner(taskType string, schema map[string]interface{}, timeout time.Duration, log logger.Logger) *JobRunner {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &JobRunner{
		TaskType: taskType,
		Schema:   schema,
		Timeout:  timeout,
		Logger:   log,
		Errors:   apperrors.NewErrorHandler(log),
		Retry:    DefaultRetryConfig,
		Recorder: currentRecorder(),
	}
}

func (r *JobRunner) observe(ctx context.Context, start time.Time, status string) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.RecordJobProcessed(ctx, r.TaskType, status)
	r.Recorder.RecordJobDuration(ctx, r.TaskType, time.Since(start), status)
}

// DecodeVariables validates the job variables against schema and decodes
// them into v.
func DecodeVariables(job entities.Job, schema map[string]interface{}, v interface{}) error {
	result, err := validation.ValidateVariables(schema, job.Variables)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidJobVariables, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidJobVariables, result.Error())
	}
	if err := json.Unmarshal([]byte(job.Variables), v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidJobVariables, err)
	}
	return nil
}

// Run decodes one job into I, executes it and completes the job with the
// output. Failures go through the shared error handler.
func Run[I any, O any](r *JobRunner, client worker.JobClient, job entities.Job, execute func(context.Context, *I) (*O, error)) {
	start := time.Now()
	log := r.Logger.WithFields(map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	log.Info("processing job", nil)

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	fail := func(err error) {
		stdErr := apperrors.FromError(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.TaskType, string(stdErr.Code)).Inc()
		r.Errors.HandleJobError(ctx, client, job, stdErr)
		r.observe(ctx, start, "failed")
	}

	var input I
	if err := DecodeVariables(job, r.Schema, &input); err != nil {
		fail(err)
		return
	}

	output, err := execute(ctx, &input)
	if err != nil {
		fail(err)
		return
	}

	err = Retry(ctx, r.Retry, "complete job", func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	})
	if err != nil {
		log.Error("failed to complete job", map[string]interface{}{"error": err})
		r.observe(ctx, start, "complete_failed")
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.TaskType).Observe(time.Since(start).Seconds())
	r.observe(ctx, start, "completed")
	log.Info("job completed successfully", nil)
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return w
}
