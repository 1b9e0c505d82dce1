package geo_test

import (
	"testing"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/stretchr/testify/require"
)

var sfCenter = geo.Point{Lat: 37.777, Lng: -122.444}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name     string
		p1, p2   geo.Point
		expected int
	}{
		{
			name:     "mission to soma",
			p1:       geo.Point{Lat: 37.7509895, Lng: -122.4186484},
			p2:       geo.Point{Lat: 37.775471, Lng: -122.4037169},
			expected: 3,
		},
		{
			name:     "same point",
			p1:       sfCenter,
			p2:       sfCenter,
			expected: 0,
		},
		{
			name:     "san francisco to oakland",
			p1:       sfCenter,
			p2:       geo.Point{Lat: 37.8044, Lng: -122.2712},
			expected: 15,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, int(geo.Distance(tc.p1, tc.p2)))
			require.Equal(t, tc.expected, int(geo.Distance(tc.p2, tc.p1)))
		})
	}
}

func TestWithinRadius(t *testing.T) {
	require.True(t, geo.WithinRadius(geo.Point{Lat: 37.775, Lng: -122.404}, sfCenter, 20))
	require.True(t, geo.WithinRadius(sfCenter, sfCenter, 0))
	// san jose is roughly 65km away
	require.False(t, geo.WithinRadius(geo.Point{Lat: 37.3382, Lng: -121.8863}, sfCenter, 20))
}
