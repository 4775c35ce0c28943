// internal/common/camunda/camunda_test.go
package camunda

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               "master-agent",
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "personal-loan-journey",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

var schema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"message"},
	"properties": map[string]interface{}{
		"message": map[string]interface{}{"type": "string"},
	},
}

func TestDecodeVariables(t *testing.T) {
	var in struct {
		Message string `json:"message"`
	}
	require.NoError(t, DecodeVariables(createMockJob(1, map[string]interface{}{"message": "hi"}), schema, &in))
	assert.Equal(t, "hi", in.Message)
}

func TestDecodeVariables_SchemaViolation(t *testing.T) {
	var in struct{}
	err := DecodeVariables(createMockJob(1, map[string]interface{}{"message": 3}), schema, &in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidJobVariables)
}

func TestRetry(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("transient then success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("rpc error: code = Unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			return errors.New("NOT_FOUND: job 1")
		})
		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeWorkflowEngine, stdErr.Code)
		assert.False(t, stdErr.Retryable)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, "op", func(context.Context) error {
			calls++
			return errors.New("deadline exceeded")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
		err := Retry(ctx, slow, "op", func(context.Context) error {
			return errors.New("connection refused")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// ==========================
// Run
// ==========================

type fakeGateway struct {
	pb.GatewayClient
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *fakeGateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.completed = append(g.completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *fakeGateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *fakeGateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

func noRetry(context.Context, error) bool { return false }

type fakeJobClient struct{ gateway *fakeGateway }

func (c fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

type observation struct {
	taskType string
	status   string
}

type recordingRecorder struct {
	processed []observation
	durations []observation
}

func (r *recordingRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.processed = append(r.processed, observation{taskType, status})
}

func (r *recordingRecorder) RecordJobDuration(_ context.Context, taskType string, _ time.Duration, status string) {
	r.durations = append(r.durations, observation{taskType, status})
}

type echoInput struct {
	Message string `json:"message"`
}

type echoOutput struct {
	Reply string `json:"reply"`
}

func echo(_ context.Context, in *echoInput) (*echoOutput, error) {
	return &echoOutput{Reply: "got " + in.Message}, nil
}

func newTestRunner(t *testing.T, rec JobRecorder) *JobRunner {
	r := NewJobRunner("master-agent", schema, time.Second, logger.NewTestLogger(t))
	r.Recorder = rec
	return r
}

func TestRun_CompletesJobAndRecords(t *testing.T) {
	gw := &fakeGateway{}
	rec := &recordingRecorder{}

	Run(newTestRunner(t, rec), fakeJobClient{gw}, createMockJob(7, map[string]interface{}{"message": "hi"}), echo)

	require.Len(t, gw.completed, 1)
	assert.Equal(t, int64(7), gw.completed[0].JobKey)
	assert.JSONEq(t, `{"reply":"got hi"}`, gw.completed[0].Variables)
	assert.Equal(t, []observation{{"master-agent", "completed"}}, rec.processed)
	assert.Equal(t, []observation{{"master-agent", "completed"}}, rec.durations)
}

func TestRun_InvalidVariablesFailJobAndRecord(t *testing.T) {
	gw := &fakeGateway{}
	rec := &recordingRecorder{}

	Run(newTestRunner(t, rec), fakeJobClient{gw}, createMockJob(8, map[string]interface{}{"other": 1}), echo)

	assert.Empty(t, gw.completed)
	assert.Equal(t, 1, len(gw.failed)+len(gw.thrown))
	assert.Equal(t, []observation{{"master-agent", "failed"}}, rec.processed)
}

func TestRun_ExecuteErrorRecordsFailure(t *testing.T) {
	gw := &fakeGateway{}
	rec := &recordingRecorder{}

	boom := func(context.Context, *echoInput) (*echoOutput, error) {
		return nil, apperrors.ErrStorePersistFailed
	}
	Run(newTestRunner(t, rec), fakeJobClient{gw}, createMockJob(9, map[string]interface{}{"message": "hi"}), boom)

	assert.Empty(t, gw.completed)
	assert.Equal(t, 1, len(gw.failed)+len(gw.thrown))
	assert.Equal(t, []observation{{"master-agent", "failed"}}, rec.durations)
}

func TestSetJobRecorder(t *testing.T) {
	rec := &recordingRecorder{}
	SetJobRecorder(rec)
	t.Cleanup(func() { SetJobRecorder(nil) })

	r := NewJobRunner("sales-agent", schema, 0, logger.NewNoOpLogger())
	assert.Same(t, rec, r.Recorder)
	assert.Equal(t, 10*time.Second, r.Timeout)
}
