package aws

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sfmovies/locations-service/pkg/construct"
)

// ErrNoAPIKey means that the value returned from the parameter store was empty
var ErrNoAPIKey = errors.New("no value for geocoder API key")

// ParameterGetter is the subset of the SSM client used to read secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func mustGetEnv(envVar string) string {
	value := os.Getenv(envVar)
	if len(value) == 0 {
		panic(fmt.Errorf("missing env var: %s", envVar))
	}
	return value
}

// Config describes all the values required to setup AWS from the environment
type Config struct {
	construct.ServiceConfig
	aws.Config
	// FeedBucket and FeedKey locate a snapshot of the open data dump. When
	// FeedBucket is empty the feed is pulled from ServiceConfig.FeedURL.
	FeedBucket string
	FeedKey    string
	// TracingEnabled exports spans to the collector layer of the lambda.
	TracingEnabled bool
	SentryDSN      string
	SentryEnv      string
}

// FromEnv constructs the AWS Configuration from the environment
func FromEnv(ctx context.Context) Config {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}
	cfg, err := newConfig(ctx, awsConfig, ssm.NewFromConfig(awsConfig))
	if err != nil {
		panic(err)
	}
	return cfg
}

func newConfig(ctx context.Context, awsConfig aws.Config, params ParameterGetter) (Config, error) {
	sc := construct.DefaultServiceConfig()

	sc.Redis.Addr = mustGetEnv("REDIS_URL") + ":6379"
	if userID := os.Getenv("REDIS_USER_ID"); len(userID) != 0 {
		sc.Redis.CredentialsProviderContext = redisCredentialsProvider(awsConfig, userID, mustGetEnv("REDIS_CACHE_NAME"))
		sc.Redis.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	} else {
		sc.Redis.Password = os.Getenv("REDIS_PASSWD")
	}

	if name := os.Getenv("GEOCODER_API_KEY_PARAM"); len(name) != 0 {
		response, err := params.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return Config{}, fmt.Errorf("retrieving geocoder API key: %w", err)
		}
		if response.Parameter == nil || response.Parameter.Value == nil || len(*response.Parameter.Value) == 0 {
			return Config{}, ErrNoAPIKey
		}
		sc.GeocoderAPIKey = *response.Parameter.Value
	}

	if feedURL := os.Getenv("FEED_URL"); len(feedURL) != 0 {
		sc.FeedURL = feedURL
	}
	if ns := os.Getenv("CATALOG_NAMESPACE"); len(ns) != 0 {
		sc.Namespace = ns
	}

	cfg := Config{
		Config:         awsConfig,
		ServiceConfig:  sc,
		FeedBucket:     os.Getenv("FEED_BUCKET"),
		TracingEnabled: len(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != 0,
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		SentryEnv:      os.Getenv("SENTRY_ENVIRONMENT"),
	}
	if len(cfg.FeedBucket) != 0 {
		cfg.FeedKey = mustGetEnv("FEED_KEY")
	}
	return cfg, nil
}

// Construct constructs the service from AWS deps for Lambda functions
func Construct(cfg Config, opts ...construct.Option) (construct.Service, error) {
	if len(cfg.FeedBucket) != 0 {
		opts = append([]construct.Option{construct.WithFeedSource(NewS3Feed(cfg.Config, cfg.FeedBucket, cfg.FeedKey))}, opts...)
	}
	return construct.Construct(cfg.ServiceConfig, opts...)
}
