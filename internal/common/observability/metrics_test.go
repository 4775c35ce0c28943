// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_TurnSpansAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := tracetest.NewSpanRecorder()

	obs, err := New("loan-journey-test", WithRegisterer(reg), WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx, span := obs.StartTurn(context.Background(), "session-1", "collect_age")
	_, step := obs.StartStep(ctx, "underwriting")
	step.End()
	span.End()
	obs.RecordTurn(ctx, "ok", 15*time.Millisecond)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "journey.step.underwriting", spans[0].Name())
	assert.Equal(t, "journey.turn", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())

	obs.RecordJobProcessed(ctx, "master-agent", "completed")
	obs.RecordJobDuration(ctx, "master-agent", 40*time.Millisecond, "completed")

	families := gather(t, reg)
	require.Contains(t, families, "journey_turns_total", "metrics: %v", keys(families))
	require.Contains(t, families, "journey_turn_duration_milliseconds")
	require.Contains(t, families, "worker_jobs_processed_total")
	require.Contains(t, families, "worker_job_processing_duration_milliseconds")

	turns := families["journey_turns_total"].GetMetric()
	require.Len(t, turns, 1)
	assert.Equal(t, 1.0, turns[0].GetCounter().GetValue())
	assert.Equal(t, "ok", label(turns[0], "outcome"))

	jobs := families["worker_jobs_processed_total"].GetMetric()
	require.Len(t, jobs, 1)
	assert.Equal(t, "master-agent", label(jobs[0], "task_type"))
	assert.Equal(t, "completed", label(jobs[0], "status"))
}

func TestNewNoop(t *testing.T) {
	obs := NewNoop()
	ctx, span := obs.StartTurn(context.Background(), "s", "greeting")
	span.End()
	obs.RecordTurn(ctx, "ok", time.Millisecond)
	obs.RecordJobProcessed(ctx, "sales-agent", "completed")
	obs.RecordJobDuration(ctx, "sales-agent", time.Millisecond, "completed")
	obs.Shutdown()
}

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func keys(m map[string]*dto.MetricFamily) []string {
	var names []string
	for n := range m {
		names = append(names, n)
	}
	return names
}

func label(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
