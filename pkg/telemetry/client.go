package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// SetupClientTelemetry installs a tracer provider for the CLI commands and the
// long running server. Spans are exported over OTLP/HTTP when
// OTEL_EXPORTER_OTLP_ENDPOINT is set and dropped otherwise.
func SetupClientTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	var opts []tracesdk.TracerProviderOption

	opts = append(opts, tracesdk.WithSampler(tracesdk.AlwaysSample()))

	exp, err := otlptracehttp.New(ctx)
	if err == nil && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		opts = append(opts, tracesdk.WithBatcher(exp))
	}

	opts = append(opts, tracesdk.WithResource(sdkresource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)))

	tp := tracesdk.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}
