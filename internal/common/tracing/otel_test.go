package tracing

import (
	"context"
	"testing"
)

func TestInit_NoEndpointKeepsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enabled, err := Init(context.Background(), "test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if enabled {
		t.Fatal("expected tracing to stay disabled")
	}

	_, span := Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestEndpointHost(t *testing.T) {
	tests := map[string]string{
		"http://collector:4318":   "collector:4318",
		"https://collector:4318/": "collector:4318",
		"collector:4318":          "collector:4318",
	}
	for in, want := range tests {
		if got := endpointHost(in); got != want {
			t.Errorf("endpointHost(%q) = %q, want %q", in, got, want)
		}
	}
}
