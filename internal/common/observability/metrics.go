package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Observability records per-job OpenTelemetry instruments. The Prometheus
// exporter makes them visible on the same /metrics endpoint as promauto.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	aiCalls       otelmetric.Int64Counter
}

// New wires a meter provider exporting through Prometheus and installs it
// as the global provider.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	o, err := NewWithReader(serviceName, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithReader builds the instruments over an arbitrary reader.
func NewWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	aiCalls, err := meter.Int64Counter(
		"ai.calls",
		otelmetric.WithDescription("AI gateway calls by source (cache or provider)"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		aiCalls:       aiCalls,
	}, nil
}

// ObserveJob records one finished job. err == nil counts as completed.
func (o *Observability) ObserveJob(ctx context.Context, taskType string, started time.Time, err error) {
	if o == nil {
		return
	}
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	o.jobCounter.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
}

// RecordAICall counts a gateway call answered from source ("cache" or "provider").
func (o *Observability) RecordAICall(ctx context.Context, kind, source string) {
	if o == nil {
		return
	}
	o.aiCalls.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("source", source),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
