package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/troupelabs/troupe/internal/config"
)

// Runs before any Init so the global provider is still the default no-op.
func TestHelpersWithoutProvider(t *testing.T) {
	ctx, span := StartRun(context.Background(), "Solo", "ollama", "qwen3:8b")
	SetLLMUsage(span, 1, 2)
	SetToolResult(span, true)
	RecordError(span, errors.New("ignored"))
	span.End()

	_, tool := StartTool(ctx, "read")
	tool.End()
}

func TestInitDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"disabled", config.TelemetryConfig{Enabled: false, Endpoint: "localhost:4317"}},
		{"no endpoint", config.TelemetryConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Init(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Errorf("noop shutdown returned %v", err)
			}
		})
	}
}

func TestInitEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"grpc", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", Protocol: "grpc", Insecure: true}},
		{"http", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4318", Protocol: "http", Insecure: true,
			Headers: map[string]string{"x-api-key": "k"}}},
		{"default protocol", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", Insecure: true,
			ServiceName: "troupe-test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Init(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}

			ctx, runSpan := StartRun(context.Background(), "Planner", "grok", "grok-code-fast-1")
			if !runSpan.SpanContext().IsValid() {
				t.Error("run span context is invalid after Init")
			}

			llmCtx, llmSpan := StartLLM(ctx, "grok", "grok-code-fast-1", 1)
			SetLLMUsage(llmSpan, 100, 50)
			llmSpan.End()

			_, toolSpan := StartTool(llmCtx, "bash")
			SetToolResult(toolSpan, false)
			toolSpan.End()

			RecordError(runSpan, errors.New("boom"))
			RecordError(runSpan, nil)
			runSpan.End()

			// Nothing listens on the endpoint, so cancel instead of waiting
			// out the export retry loop.
			canceled, cancel := context.WithCancel(context.Background())
			cancel()
			_ = shutdown(canceled)
		})
	}
}
