package construct

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	logging "github.com/ipfs/go-log/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sfmovies/locations-service/pkg/feed"
	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/geocoder"
	"github.com/sfmovies/locations-service/pkg/redis"
	"github.com/sfmovies/locations-service/pkg/service"
	"github.com/sfmovies/locations-service/pkg/service/ingestion"
	"github.com/sfmovies/locations-service/pkg/service/popularity"
	"github.com/sfmovies/locations-service/pkg/service/responsecache"
	"github.com/sfmovies/locations-service/pkg/service/search"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

var log = logging.Logger("construct")

// ServiceConfig sets specific config values for the service
type ServiceConfig struct {
	// Center is the point every stored location is close to.
	Center geo.Point
	// RadiusKm is the maximum distance of a geocoded location from Center.
	RadiusKm float64 `validate:"gt=0"`
	// CityHint is appended to every address sent to the geocoder.
	CityHint string

	// Namespace is the redis hash holding the catalog.
	Namespace  string `validate:"required"`
	MaxResults int    `validate:"gt=0"`
	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration `validate:"gt=0"`
	// LockTTL bounds how long a crashed process can hold the rating lock.
	LockTTL time.Duration `validate:"gt=0"`
	Redis   goredis.Options `validate:"-"`

	// GeocodeDelay is the minimum idle time between geocoder calls.
	GeocodeDelay   time.Duration `validate:"gte=0"`
	GeocoderURL    string        `validate:"omitempty,url"`
	GeocoderAPIKey string
	Breaker        geocoder.BreakerConfig `validate:"-"`

	// FeedURL is where the open data dump is pulled from.
	FeedURL string `validate:"omitempty,url"`
	// HTTPTimeout bounds each call to the geocoder and the feed.
	HTTPTimeout time.Duration `validate:"gte=0"`
}

// DefaultServiceConfig is the configuration for San Francisco.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Center:       geo.Point{Lat: 37.777, Lng: -122.444},
		RadiusKm:     20,
		CityHint:     "San Francisco, CA, US",
		Namespace:    redis.DefaultNamespace,
		MaxResults:   search.DefaultMaxResults,
		CacheTTL:     redis.DefaultExpire,
		LockTTL:      redis.DefaultLockTTL,
		Redis:        goredis.Options{Addr: "localhost:6379"},
		GeocodeDelay: geocoder.DefaultDelay,
		GeocoderURL:  geocoder.DefaultGoogleURL,
		Breaker:      geocoder.DefaultBreakerConfig(),
		FeedURL:      feed.DefaultURL,
		HTTPTimeout:  30 * time.Second,
	}
}

type config struct {
	redisClient redis.FullClient
	feedSource  types.FeedSource
	provider    types.CoordinateProvider
	httpClient  *http.Client
}

// Option configures how the service is constructed
type Option func(*config) error

// WithRedisClient uses client instead of connecting to sc.Redis.
func WithRedisClient(client redis.FullClient) Option {
	return func(cfg *config) error {
		cfg.redisClient = client
		return nil
	}
}

// WithFeedSource overrides the feed built from sc.FeedURL.
func WithFeedSource(source types.FeedSource) Option {
	return func(cfg *config) error {
		cfg.feedSource = source
		return nil
	}
}

// WithCoordinateProvider overrides the geocoder built from sc.GeocoderURL.
func WithCoordinateProvider(provider types.CoordinateProvider) Option {
	return func(cfg *config) error {
		cfg.provider = provider
		return nil
	}
}

// WithHTTPClient sets the client used for the geocoder and the feed.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) error {
		cfg.httpClient = client
		return nil
	}
}

// Service is the film locations service with additional lifecycle methods.
type Service interface {
	types.Service
	Shutdown(ctx context.Context) error
}

type serviceWithLifeCycle struct {
	*service.LocationService
	shutdownFuncs []func(ctx context.Context) error
}

func (s *serviceWithLifeCycle) Shutdown(ctx context.Context) error {
	for _, shutdownFunc := range s.shutdownFuncs {
		err := shutdownFunc(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks sc for values the service cannot run with.
func (sc ServiceConfig) Validate() error {
	if err := validate.Struct(sc); err != nil {
		return fmt.Errorf("%w: %w", types.ErrBadConfig, err)
	}
	return nil
}

// Construct constructs a full operational film locations service, using real
// dependencies unless overridden by opts.
func Construct(sc ServiceConfig, opts ...Option) (Service, error) {
	var cfg config
	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = telemetry.GetInstrumentedHTTPClient(sc.HTTPTimeout)
	}

	feedSource := cfg.feedSource
	if feedSource == nil {
		if sc.FeedURL == "" {
			return nil, types.ConfigError{Field: "feed source"}
		}
		u, err := url.Parse(sc.FeedURL)
		if err != nil {
			return nil, fmt.Errorf("parsing feed URL: %w", err)
		}
		feedSource = feed.NewHTTPFeed(u, httpClient)
	}

	provider := cfg.provider
	if provider == nil {
		if sc.GeocoderURL == "" {
			return nil, types.ConfigError{Field: "coordinate provider"}
		}
		u, err := url.Parse(sc.GeocoderURL)
		if err != nil {
			return nil, fmt.Errorf("parsing geocoder URL: %w", err)
		}
		if sc.GeocoderAPIKey == "" {
			log.Warn("geocoder API key not configured")
		}
		provider = geocoder.WithBreaker(geocoder.NewGoogle(u, sc.GeocoderAPIKey, httpClient), sc.Breaker)
	}

	s := &serviceWithLifeCycle{}
	client := cfg.redisClient
	if client == nil {
		rc := telemetry.GetInstrumentedRedisClient(&sc.Redis)
		s.shutdownFuncs = append(s.shutdownFuncs, func(context.Context) error {
			return rc.Close()
		})
		client = rc
	}

	store := redis.NewCatalogStore(client, sc.Namespace)
	engine := search.NewEngine(store, search.WithMaxResults(sc.MaxResults))
	searcher := responsecache.WithCache(
		engine,
		store,
		redis.NewResultCache(client, redis.WithExpiration(sc.CacheTTL)),
		redis.NewSearchCache(client, redis.WithExpiration(sc.CacheTTL)),
	)
	ledger := popularity.NewLedger(store, redis.NewLock(client, sc.Namespace+":rating-lock", redis.WithLockTTL(sc.LockTTL)))
	gateway := geocoder.NewGateway(provider, geocoder.WithDelay(sc.GeocodeDelay))
	controller := ingestion.NewController(store, gateway, ingestion.City{
		Center:   sc.Center,
		RadiusKm: sc.RadiusKm,
		Hint:     sc.CityHint,
	})

	s.LocationService = service.NewLocationService(store, searcher, ledger, controller, feedSource)
	log.Infow("constructed service", "namespace", sc.Namespace, "radius_km", sc.RadiusKm, "max_results", sc.MaxResults)
	return s, nil
}
