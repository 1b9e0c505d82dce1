package geocoder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/geocoder"
	"github.com/sfmovies/locations-service/pkg/internal/testutil"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mu     sync.Mutex
	calls  []string
	points map[string]geo.Point
	err    error
}

func (m *mockProvider) Coordinates(ctx context.Context, address, cityHint string) (*geo.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, address)
	if m.err != nil {
		return nil, m.err
	}
	pt, ok := m.points[address]
	if !ok {
		return nil, nil
	}
	return &pt, nil
}

// fakeClock advances only when the gateway sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestGatewayResolve(t *testing.T) {
	ctx := context.Background()
	hall := geo.Point{Lat: 37.775471, Lng: -122.4037169}

	t.Run("outcomes", func(t *testing.T) {
		provider := &mockProvider{points: map[string]geo.Point{"850 Bryant Street": hall}}
		gw := geocoder.NewGateway(provider, geocoder.WithDelay(0))

		pt := testutil.Must(gw.Resolve(ctx, "850 Bryant Street", "San Francisco, CA, US"))(t)
		require.Equal(t, &hall, pt)

		pt, err := gw.Resolve(ctx, "Nowhere", "San Francisco, CA, US")
		require.NoError(t, err)
		require.Nil(t, pt)
	})

	t.Run("provider error passes through", func(t *testing.T) {
		perr := &types.ProviderError{Provider: "geocoder", Status: 500}
		gw := geocoder.NewGateway(&mockProvider{err: perr}, geocoder.WithDelay(0))
		_, err := gw.Resolve(ctx, "850 Bryant Street", "")
		require.ErrorIs(t, err, perr)
	})

	t.Run("other errors become provider errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		gw := geocoder.NewGateway(&mockProvider{err: cause}, geocoder.WithDelay(0))
		_, err := gw.Resolve(ctx, "850 Bryant Street", "")
		var perr *types.ProviderError
		require.ErrorAs(t, err, &perr)
		require.ErrorIs(t, err, cause)
	})

	t.Run("throttles every call", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		provider := &mockProvider{}
		gw := geocoder.NewGateway(provider, geocoder.WithDelay(500*time.Millisecond), geocoder.WithClock(clock.Now, clock.Sleep))

		for range 3 {
			_, err := gw.Resolve(ctx, "Nowhere", "")
			require.NoError(t, err)
		}
		require.Len(t, provider.calls, 3)
		// the first call goes straight through
		require.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, clock.sleeps)

		// time already spent idle counts towards the delay
		clock.now = clock.now.Add(300 * time.Millisecond)
		_, err := gw.Resolve(ctx, "Nowhere", "")
		require.NoError(t, err)
		require.Equal(t, 200*time.Millisecond, clock.sleeps[2])

		clock.now = clock.now.Add(time.Second)
		_, err = gw.Resolve(ctx, "Nowhere", "")
		require.NoError(t, err)
		require.Len(t, clock.sleeps, 3)
	})

	t.Run("failed calls are not retried", func(t *testing.T) {
		provider := &mockProvider{err: errors.New("boom")}
		gw := geocoder.NewGateway(provider, geocoder.WithDelay(0))
		_, err := gw.Resolve(ctx, "850 Bryant Street", "")
		require.Error(t, err)
		require.Len(t, provider.calls, 1)
	})

	t.Run("context canceled while throttled", func(t *testing.T) {
		provider := &mockProvider{}
		gw := geocoder.NewGateway(provider, geocoder.WithDelay(time.Hour))
		_, err := gw.Resolve(ctx, "Nowhere", "")
		require.NoError(t, err)

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = gw.Resolve(cctx, "Nowhere", "")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Len(t, provider.calls, 1)
	})
}

func TestWithBreaker(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{err: errors.New("boom")}
	cb := geocoder.WithBreaker(provider, geocoder.BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Hour})

	for range 2 {
		_, err := cb.Coordinates(ctx, "850 Bryant Street", "")
		require.EqualError(t, err, "boom")
	}
	_, err := cb.Coordinates(ctx, "850 Bryant Street", "")
	var perr *types.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Len(t, provider.calls, 2)

	t.Run("no match is a success", func(t *testing.T) {
		provider := &mockProvider{}
		cb := geocoder.WithBreaker(provider, geocoder.BreakerConfig{ConsecutiveFailures: 1, Timeout: time.Hour})
		for range 3 {
			pt, err := cb.Coordinates(ctx, "Nowhere", "")
			require.NoError(t, err)
			require.Nil(t, pt)
		}
		require.Len(t, provider.calls, 3)
	})
}
