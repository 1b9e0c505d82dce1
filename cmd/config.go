package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/urfave/cli/v2"
)

// serviceFlags configure the catalog for every command that opens it.
var serviceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "redis-url",
		Aliases: []string{"redis"},
		EnvVars: []string{"REDIS_URL"},
		Value:   "localhost:6379",
		Usage:   "address of a running redis database",
	},
	&cli.StringFlag{
		Name:    "redis-passwd",
		Aliases: []string{"rp"},
		EnvVars: []string{"REDIS_PASSWD"},
		Usage:   "passwd for redis",
	},
	&cli.StringFlag{
		Name:    "namespace",
		EnvVars: []string{"CATALOG_NAMESPACE"},
		Usage:   "redis hash holding the catalog",
	},
	&cli.StringFlag{
		Name:    "geocoder-url",
		EnvVars: []string{"GEOCODER_URL"},
		Usage:   "endpoint of the Google geocode API",
	},
	&cli.StringFlag{
		Name:    "geocoder-api-key",
		EnvVars: []string{"GEOCODER_API_KEY"},
		Usage:   "API key sent with every geocode request",
	},
	&cli.StringFlag{
		Name:    "feed-url",
		EnvVars: []string{"FEED_URL"},
		Usage:   "URL of the open data dump of film locations",
	},
	&cli.DurationFlag{
		Name:    "cache-ttl",
		EnvVars: []string{"CACHE_TTL"},
		Usage:   "lifetime of cached responses",
	},
	&cli.IntFlag{
		Name:    "max-results",
		EnvVars: []string{"MAX_RESULTS"},
		Usage:   "maximum number of records in a listing",
	},
}

func serviceConfig(cCtx *cli.Context) construct.ServiceConfig {
	sc := construct.DefaultServiceConfig()
	sc.Redis = redis.Options{
		Addr:     cCtx.String("redis-url"),
		Password: cCtx.String("redis-passwd"),
	}
	if cCtx.IsSet("namespace") {
		sc.Namespace = cCtx.String("namespace")
	}
	if cCtx.IsSet("geocoder-url") {
		sc.GeocoderURL = cCtx.String("geocoder-url")
	}
	sc.GeocoderAPIKey = cCtx.String("geocoder-api-key")
	if cCtx.IsSet("feed-url") {
		sc.FeedURL = cCtx.String("feed-url")
	}
	if cCtx.IsSet("cache-ttl") {
		sc.CacheTTL = cCtx.Duration("cache-ttl")
	}
	if cCtx.IsSet("max-results") {
		sc.MaxResults = cCtx.Int("max-results")
	}
	return sc
}
