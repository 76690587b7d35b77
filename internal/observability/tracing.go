package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// ServiceName is the service.name resource attribute of exported spans.
const ServiceName = "doctrack"

// TracingConfig configures SetupTracing.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL. Tracing is off when empty.
	Endpoint string
	// SampleRatio is the fraction of root spans kept.
	SampleRatio float64
	// Version is the service.version resource attribute.
	Version string
}

// SetupTracing installs a global tracer provider exporting to the
// collector and the W3C trace context propagator. Without an endpoint no
// provider is installed and spans stay no-ops. The returned function
// flushes pending spans and must be called on shutdown.
func SetupTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	const op = "observability.SetupTracing"
	noop := func(context.Context) error { return nil }

	if cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, dterrors.DependencyWrap(err, op, "failed to create span exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return noop, dterrors.InternalWrap(err, op, "failed to describe the service resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
