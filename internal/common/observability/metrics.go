// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability owns the otel meter and tracer used for conversation turns
// and worker jobs.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	turnCounter  otelmetric.Int64Counter
	turnDuration otelmetric.Float64Histogram
	jobCounter   otelmetric.Int64Counter
	jobDuration  otelmetric.Float64Histogram
}

type options struct {
	registerer prometheus.Registerer
	processors []sdktrace.SpanProcessor
}

type Option func(*options)

// WithRegisterer sends the exported metrics to reg instead of the default
// Prometheus registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor, e.g. a tracetest recorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, p) }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var exporterOpts []otelprom.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, otelprom.WithRegisterer(o.registerer))
	}
	exporter, err := otelprom.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	var tpOpts []sdktrace.TracerProviderOption
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	obs := &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	// Exported as journey_turns_total and journey_turn_duration_milliseconds.
	obs.turnCounter, _ = meter.Int64Counter(
		"journey_turns",
		otelmetric.WithDescription("Conversation turns handled"),
	)
	obs.turnDuration, _ = meter.Float64Histogram(
		"journey_turn_duration",
		otelmetric.WithDescription("Time to answer one applicant message"),
		otelmetric.WithUnit("ms"),
	)
	obs.jobCounter, _ = meter.Int64Counter(
		"worker_jobs_processed",
		otelmetric.WithDescription("Zeebe jobs finished, by task type and status"),
	)
	obs.jobDuration, _ = meter.Float64Histogram(
		"worker_job_processing_duration",
		otelmetric.WithDescription("Zeebe job processing time, by task type and status"),
		otelmetric.WithUnit("ms"),
	)
	return obs, nil
}

// NewNoop records nothing. Used when metrics are disabled and in tests that
// do not assert on telemetry.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("")}
}

// StartTurn opens the span covering one applicant message.
func (o *Observability) StartTurn(ctx context.Context, sessionID, stage string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "journey.turn", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("journey.stage", stage),
	))
}

// StartStep opens a child span for an automatic agent step.
func (o *Observability) StartStep(ctx context.Context, agent string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "journey.step."+agent)
}

func (o *Observability) RecordTurn(ctx context.Context, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, attrs)
	}
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
