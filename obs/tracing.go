// Package obs provides observability for the canon normalization engine.
// It includes OpenTelemetry-based tracing and metrics with zero overhead
// when no provider is configured, plus an in-process diagnostics collector
// for coverage inspection.
package obs

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/getcanon/canon/core"
)

var (
	tracer     trace.Tracer
	tracerOnce sync.Once
)

// Tracer returns the configured tracer, or a noop tracer when no global
// tracer provider is set. This keeps the per-span path free when tracing
// is disabled.
func Tracer() trace.Tracer {
	tracerOnce.Do(func() {
		provider := otel.GetTracerProvider()
		if provider == nil {
			tracer = noop.NewTracerProvider().Tracer("")
		} else {
			tracer = provider.Tracer(
				"github.com/getcanon/canon",
				trace.WithInstrumentationVersion("1.0.0"),
			)
		}
	})
	return tracer
}

// StartNormalizeSpan starts the span covering one normalize call.
func StartNormalizeSpan(ctx context.Context, attrCount int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "canon.normalize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("canon.attributes.count", attrCount),
		),
	)
}

// RecordOutcome annotates the normalize span with the result of assembly.
func RecordOutcome(span trace.Span, ev *core.CanonicalEvent) {
	if ev == nil {
		return
	}
	span.SetAttributes(
		attribute.String("canon.provider", ev.Provider()),
		attribute.Int("canon.diagnostics.count", len(ev.Diagnostics)),
		attribute.Int("canon.fields.inputs", ev.Inputs.Len()),
		attribute.Int("canon.fields.outputs", ev.Outputs.Len()),
		attribute.Int("canon.fields.config", ev.Config.Len()),
		attribute.Int("canon.fields.metadata", ev.Metadata.Len()),
	)
}
