package geocoder

import (
	"context"
	"time"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures the circuit breaker in front of a provider.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before letting a probe
	// through.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the breaker settings used by the service.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 5, Timeout: 30 * time.Second}
}

type breakingProvider struct {
	provider types.CoordinateProvider
	cb       *gobreaker.CircuitBreaker
}

// WithBreaker fails calls fast with a [*types.ProviderError] once provider
// has failed too many times in a row. A "no match" answer counts as a
// success.
func WithBreaker(provider types.CoordinateProvider, cfg BreakerConfig) types.CoordinateProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geocoder",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnw("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakingProvider{provider: provider, cb: cb}
}

func (b *breakingProvider) Coordinates(ctx context.Context, address, cityHint string) (*geo.Point, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Coordinates(ctx, address, cityHint)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &types.ProviderError{Provider: "geocoder", Err: err}
		}
		return nil, err
	}
	return res.(*geo.Point), nil
}
