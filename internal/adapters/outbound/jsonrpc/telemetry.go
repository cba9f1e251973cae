// telemetry.go provides OpenTelemetry instrumentation for the JSON-RPC client.
//
// Metrics:
//   - jsonrpc.client.request.duration: Histogram of request latencies
//   - jsonrpc.client.requests.total: Counter of requests by method/status
//   - jsonrpc.client.errors.total: Counter of failures by method/kind
package jsonrpc

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

const (
	// instrumentationName is the name used for OpenTelemetry instrumentation.
	instrumentationName = "github.com/archon-research/contract-probe/internal/adapters/outbound/jsonrpc"
)

// Telemetry provides OpenTelemetry metrics and tracing for the JSON-RPC client.
type Telemetry struct {
	tracer trace.Tracer

	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	errorsTotal     metric.Int64Counter
}

// NewTelemetry creates a new Telemetry instance with OpenTelemetry instrumentation.
// Uses the global tracer and meter providers by default.
func NewTelemetry() (*Telemetry, error) {
	return NewTelemetryWithProviders(
		otel.GetTracerProvider(),
		otel.GetMeterProvider(),
	)
}

// NewTelemetryWithProviders creates a new Telemetry instance with custom providers.
func NewTelemetryWithProviders(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)
	t := &Telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.requestDuration, err = meter.Float64Histogram(
		"jsonrpc.client.request.duration",
		metric.WithDescription("Duration of JSON-RPC requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	t.requestsTotal, err = meter.Int64Counter(
		"jsonrpc.client.requests.total",
		metric.WithDescription("Total number of JSON-RPC requests"),
	)
	if err != nil {
		return nil, err
	}

	t.errorsTotal, err = meter.Int64Counter(
		"jsonrpc.client.errors.total",
		metric.WithDescription("Total number of failed JSON-RPC requests by error kind"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// StartSpan starts a new span for an RPC method call.
func (t *Telemetry) StartSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "jsonrpc."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", method),
		),
	)
}

// EndSpan marks the span failed when err is set and ends it.
func (t *Telemetry) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordRequest records metrics for one JSON-RPC request.
func (t *Telemetry) RecordRequest(ctx context.Context, method string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.String("status", status),
	)
	t.requestDuration.Record(ctx, duration.Seconds(), attrs)
	t.requestsTotal.Add(ctx, 1, attrs)

	if err != nil {
		t.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("rpc.method", method),
			attribute.String("kind", errorKind(err)),
		))
	}
}

func errorKind(err error) string {
	var te *outbound.TransportError
	if errors.As(err, &te) {
		if te.Timeout() {
			return "timeout"
		}
		return "transport"
	}
	var pe *outbound.ProtocolError
	if errors.As(err, &pe) {
		return "protocol"
	}
	return "other"
}
