package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sfmovies/locations-service"

// StartSpan starts a span named name as a child of any span in ctx, using the
// global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// Error records err on the span and marks it as failed.
func Error(s trace.Span, err error, msg string) {
	s.RecordError(err)
	s.SetStatus(codes.Error, msg)
}
