package main

import (
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/sfmovies/locations-service/cmd/lambda"
	"github.com/sfmovies/locations-service/pkg/aws"
	"github.com/sfmovies/locations-service/pkg/server"
	"github.com/sfmovies/locations-service/pkg/telemetry"
)

func main() {
	lambda.Start(makeHandler)
}

func makeHandler(cfg aws.Config) any {
	service, err := aws.Construct(cfg)
	if err != nil {
		panic(err)
	}

	var opts []server.Option
	if cfg.SentryDSN != "" {
		opts = append(opts, server.WithErrorLogger(telemetry.NewSentryLogger("server")))
	}

	return httpadapter.NewV2(server.NewServer(service, opts...)).ProxyWithContext
}
