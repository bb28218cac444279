// Package tracing wires optional OTLP span export for agent runs. When
// telemetry is disabled the helpers still work: otel hands out no-op spans
// until a provider is installed, so call sites never branch on config.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/troupelabs/troupe/internal/config"
)

const scopeName = "github.com/troupelabs/troupe"

// Init installs a global tracer provider exporting to the configured OTLP
// endpoint. It returns a shutdown function that flushes pending spans; when
// telemetry is disabled the shutdown is a no-op.
func Init(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "troupe"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		res = resource.Default()
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Debug("tracing enabled", "endpoint", cfg.Endpoint, "protocol", cfg.Protocol)
	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	if cfg.Protocol == "http" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func tracer() trace.Tracer { return otel.Tracer(scopeName) }

// StartRun opens the root span for one agent run.
func StartRun(ctx context.Context, agent, provider, model string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("agent.name", agent),
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	))
}

// StartLLM opens a span for one provider round trip inside a run.
func StartLLM(ctx context.Context, provider, model string, round int) (context.Context, trace.Span) {
	return tracer().Start(ctx, fmt.Sprintf("llm.%s", provider), trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.round", round),
	), trace.WithSpanKind(trace.SpanKindClient))
}

// SetLLMUsage attaches token counts to a provider span.
func SetLLMUsage(span trace.Span, in, out int) {
	span.SetAttributes(
		attribute.Int("llm.tokens.input", in),
		attribute.Int("llm.tokens.output", out),
	)
}

// StartTool opens a span for one sandboxed tool call.
func StartTool(ctx context.Context, tool string) (context.Context, trace.Span) {
	return tracer().Start(ctx, fmt.Sprintf("tool.%s", tool), trace.WithAttributes(
		attribute.String("tool.name", tool),
	))
}

// SetToolResult marks whether a tool call produced a usable result.
func SetToolResult(span trace.Span, ok bool) {
	span.SetAttributes(attribute.Bool("tool.ok", ok))
	if !ok {
		span.SetStatus(codes.Error, "tool failed")
	}
}

// RecordError marks the span failed. Nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
