package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/cmd/lambda"
	"github.com/sfmovies/locations-service/pkg/aws"
	"github.com/sfmovies/locations-service/pkg/server"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

var log = logging.Logger("lambda/ingest")

func main() {
	lambda.Start(makeHandler)
}

// makeHandler refreshes the catalog from the feed on every scheduled event.
func makeHandler(cfg aws.Config) any {
	service, err := aws.Construct(cfg)
	if err != nil {
		panic(err)
	}

	var errorLogger server.ErrorLogger = log
	if cfg.SentryDSN != "" {
		errorLogger = telemetry.NewSentryLogger("lambda/ingest")
	}

	return func(ctx context.Context, event events.CloudWatchEvent) (types.IngestResult, error) {
		res, err := service.Update(ctx)
		if err != nil {
			errorLogger.Errorf("scheduled ingestion %s aborted after %d records (%d added): %s", event.ID, res.Seen, res.Added, err)
			return res, err
		}
		return res, nil
	}
}
