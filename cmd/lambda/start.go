package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/getsentry/sentry-go"
	"github.com/sfmovies/locations-service/pkg/aws"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
)

// handlerFactory is a factory function that returns a function suitable to use as a lambda handler. See
// https://docs.aws.amazon.com/lambda/latest/dg/golang-handler.html#golang-handler-signatures for information on the
// valid signatures a handler function can have to be used as a lambda handler.
type handlerFactory func(cfg aws.Config) any

// Start starts the lambda with the handler obtained from the factory function.
// The handler is instrumented with OpenTelemetry when tracing is enabled.
func Start(makeHandler handlerFactory) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnv,
		})
		if err != nil {
			panic(err)
		}
	}

	if cfg.TracingEnabled {
		// must run before any AWS client is built from cfg.Config
		tp, telemetryShutdown, err := telemetry.SetupTelemetry(ctx, &cfg.Config)
		if err != nil {
			panic(err)
		}
		defer telemetryShutdown(ctx)

		instrumentedHandler := otellambda.InstrumentHandler(
			makeHandler(cfg),
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp),
		)
		lambda.StartWithOptions(instrumentedHandler, lambda.WithContext(ctx))
	} else {
		lambda.StartWithOptions(makeHandler(cfg), lambda.WithContext(ctx))
	}
}
