package telemetry

import (
	"context"
	"testing"

	"github.com/moltbook/api/pkg/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(&config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	shutdown()

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	if ctx == nil {
		t.Fatal("StartSpan() returned nil context")
	}
	if span.SpanContext().IsValid() {
		t.Error("Expected no-op span when telemetry is disabled")
	}
}

func TestNewSpanExporter_Unknown(t *testing.T) {
	_, err := newSpanExporter(context.Background(), &config.TelemetryConfig{
		Exporter: "zipkin",
		Endpoint: "http://localhost:9411",
	})
	if err == nil {
		t.Error("Expected error for unknown exporter")
	}
}

func TestRecorders(t *testing.T) {
	ctx := context.Background()

	// The global meter is a no-op until Init installs a provider
	RecordVote(ctx, "up", "created")
	RecordPostCreated(ctx, "general")
	RecordCommentCreated(ctx, true)
	RecordRegistration(ctx, true)

	if counters().votes == nil {
		t.Error("Expected votes counter to be created")
	}
}
