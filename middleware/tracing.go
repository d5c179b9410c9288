package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

// tracerName is the instrumentation scope name for kazisync tracing.
const tracerName = "github.com/Tafakari-Ltd/kazibuddy-sync"

// Tracing returns middleware that wraps each operation in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: kazisync.operation and kazisync.entity_id.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, op *pipeline.Descriptor, next Handler) error {
		ctx, span := tracer.Start(ctx, "kazisync.operation",
			trace.WithAttributes(
				attribute.String("kazisync.operation", op.Name),
				attribute.String("kazisync.entity_id", op.EntityID),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
