package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.ProbeMetrics
var _ outbound.ProbeMetrics = (*Metrics)(nil)

// Metrics implements outbound.ProbeMetrics using OpenTelemetry.
type Metrics struct {
	runDuration    metric.Float64Histogram
	workingMethods metric.Int64Histogram
	methodProbes   metric.Int64Counter
	failovers      metric.Int64Counter
}

// NewMetrics creates a recorder on the global meter provider.
// meterName should typically be the package name or service name.
func NewMetrics(meterName string) (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider(), meterName)
}

// NewMetricsWithProvider creates a recorder on mp.
func NewMetricsWithProvider(mp metric.MeterProvider, meterName string) (*Metrics, error) {
	meter := mp.Meter(meterName)

	runDuration, err := meter.Float64Histogram(
		"probe_run_duration_seconds",
		metric.WithDescription("Time taken to probe the full selector catalog"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_run_duration_seconds histogram: %w", err)
	}

	working, err := meter.Int64Histogram(
		"probe_working_methods",
		metric.WithDescription("Number of catalog methods that answered in a run"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_working_methods histogram: %w", err)
	}

	probes, err := meter.Int64Counter(
		"probe_method_calls_total",
		metric.WithDescription("Total number of selector calls by method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_method_calls_total counter: %w", err)
	}

	failovers, err := meter.Int64Counter(
		"endpoint_failovers_total",
		metric.WithDescription("Total number of endpoints invalidated after transport failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint_failovers_total counter: %w", err)
	}

	return &Metrics{
		runDuration:    runDuration,
		workingMethods: working,
		methodProbes:   probes,
		failovers:      failovers,
	}, nil
}

// RecordProbeRun records one catalog run.
func (m *Metrics) RecordProbeRun(ctx context.Context, duration time.Duration, working, total int) {
	attrs := metric.WithAttributes(attribute.Int("catalog_size", total))
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	m.workingMethods.Record(ctx, int64(working), attrs)
}

// RecordMethodProbe increments the per-method counter.
func (m *Metrics) RecordMethodProbe(ctx context.Context, method string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	m.methodProbes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

// RecordFailover increments the failover counter.
func (m *Metrics) RecordFailover(ctx context.Context, endpoint string) {
	m.failovers.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}
