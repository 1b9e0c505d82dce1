package telemetry

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	logging "github.com/ipfs/go-log/v2"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

var log = logging.Logger("telemetry")

// ServiceName is reported as service.name on every span.
const ServiceName = "locations-service"

// SetupTelemetry installs a global tracer provider exporting to the collector
// layer running next to the lambda, and instruments every AWS SDK client
// later built from cfg. It must run before those clients are created.
func SetupTelemetry(ctx context.Context, cfg *aws.Config) (*trace.TracerProvider, func(context.Context), error) {
	// the collector layer listens on localhost only
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, nil, err
	}

	detected, err := lambdadetector.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := resource.Merge(detected, resource.NewSchemaless(attribute.String("service.name", ServiceName)))
	if err != nil {
		return nil, nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	otelaws.AppendMiddlewares(&cfg.APIOptions)

	shutdown := func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			log.Errorw("shutting down tracer provider", "err", err)
		}
	}
	return tp, shutdown, nil
}

// GetInstrumentedHTTPClient returns a client for outbound calls to the
// geocoder and the open data feed. timeout bounds each whole request.
func GetInstrumentedHTTPClient(timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConnsPerHost: 4,
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   timeout,
	}
}

// GetInstrumentedRedisClient connects to the catalog redis with tracing
// enabled. A failure to instrument is logged and the client is still
// returned.
func GetInstrumentedRedisClient(opts *redis.Options) *redis.Client {
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client, redisotel.WithDBStatement(false)); err != nil {
		log.Warnw("instrumenting redis client", "err", err)
	}
	return client
}
