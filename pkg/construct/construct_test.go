package construct_test

import (
	"context"
	"testing"

	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/sfmovies/locations-service/pkg/feed"
	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/internal/testutil"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/stretchr/testify/require"
)

type fixedProvider geo.Point

func (p fixedProvider) Coordinates(context.Context, string, string) (*geo.Point, error) {
	pt := geo.Point(p)
	return &pt, nil
}

func TestConstruct(t *testing.T) {
	ctx := context.Background()

	t.Run("wires the service", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		sc := construct.DefaultServiceConfig()
		sc.GeocodeDelay = 0
		raw := testutil.RandomRawRecords(3)

		svc := testutil.Must(construct.Construct(sc,
			construct.WithRedisClient(mockRedis),
			construct.WithFeedSource(feed.Static(raw)),
			construct.WithCoordinateProvider(fixedProvider{Lat: 37.775, Lng: -122.404}),
		))(t)
		defer svc.Shutdown(ctx)

		res := testutil.Must(svc.Update(ctx))(t)
		require.Equal(t, 3, res.Added)
		require.Len(t, mockRedis.Hashes["FilmNamespace"], 3)
		require.Len(t, testutil.Must(svc.MostPopular(ctx))(t), 3)
		require.Contains(t, mockRedis.Keys, "ResultCache:popular")
		require.Equal(t, sc.CacheTTL, mockRedis.Expirations["ResultCache:popular"])
	})

	t.Run("missing feed source", func(t *testing.T) {
		sc := construct.DefaultServiceConfig()
		sc.FeedURL = ""
		_, err := construct.Construct(sc, construct.WithRedisClient(testutil.NewMockRedis()))
		require.ErrorIs(t, err, types.ErrBadConfig)
		require.Equal(t, types.ConfigError{Field: "feed source"}, err)
	})

	t.Run("missing coordinate provider", func(t *testing.T) {
		sc := construct.DefaultServiceConfig()
		sc.GeocoderURL = ""
		_, err := construct.Construct(sc, construct.WithRedisClient(testutil.NewMockRedis()))
		require.Equal(t, types.ConfigError{Field: "coordinate provider"}, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		sc := construct.DefaultServiceConfig()
		sc.RadiusKm = 0
		sc.MaxResults = -1
		_, err := construct.Construct(sc, construct.WithRedisClient(testutil.NewMockRedis()))
		require.ErrorIs(t, err, types.ErrBadConfig)
		require.ErrorContains(t, err, "RadiusKm")
		require.ErrorContains(t, err, "MaxResults")
	})

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, construct.DefaultServiceConfig().Validate())
	})
}
