package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupTracing_NoopWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := SetupTracing(context.Background(), TracingConfig{SampleRatio: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("no provider should be installed without an endpoint")
	}
}

func TestSetupTracing_InstallsProvider(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	// A non-routable collector: nothing is exported since no span is started.
	shutdown, err := SetupTracing(context.Background(), TracingConfig{
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: 0.5,
		Version:     "v1.2.3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); ok {
		t.Error("expected an SDK tracer provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
