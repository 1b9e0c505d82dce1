package geocoder

import (
	"context"
	"errors"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("geocoder")

// DefaultDelay is the minimum idle time between two provider calls.
const DefaultDelay = 500 * time.Millisecond

// Gateway throttles calls to a coordinate provider. At most one call is in
// flight at a time and consecutive calls are separated by at least the
// configured delay. Results are never cached and failed calls are never
// retried.
type Gateway struct {
	provider types.CoordinateProvider
	delay    time.Duration
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error

	mu   sync.Mutex
	last time.Time
}

type Option func(*Gateway)

// WithDelay sets the minimum idle time between calls.
func WithDelay(d time.Duration) Option {
	return func(g *Gateway) {
		g.delay = d
	}
}

// WithClock replaces the time source and the sleep function, for tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(g *Gateway) {
		g.now = now
		g.sleep = sleep
	}
}

// NewGateway wraps provider with the call throttle.
func NewGateway(provider types.CoordinateProvider, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		delay:    DefaultDelay,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the coordinates of location, nil when the provider knows no
// such place, or a [*types.ProviderError] when the call failed.
func (g *Gateway) Resolve(ctx context.Context, location, cityHint string) (*geo.Point, error) {
	ctx, s := telemetry.StartSpan(ctx, "Gateway.Resolve", trace.WithAttributes(attribute.String("location", location)))
	defer s.End()

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if wait := g.delay - g.now().Sub(g.last); wait > 0 {
			if err := g.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	pt, err := g.provider.Coordinates(ctx, location, cityHint)
	g.last = g.now()
	if err != nil {
		telemetry.GeocodeRequests.WithLabelValues("error").Inc()
		var perr *types.ProviderError
		if !errors.As(err, &perr) {
			err = &types.ProviderError{Provider: "geocoder", Err: err}
		}
		telemetry.Error(s, err, "resolving location")
		log.Errorw("geocoding failed", "location", location, "err", err)
		return nil, err
	}
	if pt == nil {
		telemetry.GeocodeRequests.WithLabelValues("no_match").Inc()
		log.Debugw("no match", "location", location)
		return nil, nil
	}
	telemetry.GeocodeRequests.WithLabelValues("match").Inc()
	return pt, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
