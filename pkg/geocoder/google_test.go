package geocoder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/geocoder"
	"github.com/sfmovies/locations-service/pkg/internal/testutil"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestGoogleCoordinates(t *testing.T) {
	testCases := []struct {
		name          string
		status        int
		body          string
		expectedPoint *geo.Point
		expectedErr   string
	}{
		{
			name:          "match",
			status:        http.StatusOK,
			body:          `{"status":"OK","results":[{"geometry":{"location":{"lat":37.775471,"lng":-122.4037169}}},{"geometry":{"location":{"lat":1,"lng":1}}}]}`,
			expectedPoint: &geo.Point{Lat: 37.775471, Lng: -122.4037169},
		},
		{
			name:   "zero results",
			status: http.StatusOK,
			body:   `{"status":"ZERO_RESULTS","results":[]}`,
		},
		{
			name:        "quota exceeded",
			status:      http.StatusOK,
			body:        `{"status":"OVER_QUERY_LIMIT","error_message":"slow down","results":[]}`,
			expectedErr: "geocoder provider error: status 200: OVER_QUERY_LIMIT: slow down",
		},
		{
			name:        "bad status code",
			status:      http.StatusInternalServerError,
			body:        "oops",
			expectedErr: "geocoder provider error: status 500: oops",
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        "<html>",
			expectedErr: "geocoder provider error: status 200: decoding response: invalid character '<' looking for beginning of value",
		},
		{
			name:        "ok without results",
			status:      http.StatusOK,
			body:        `{"status":"OK","results":[]}`,
			expectedErr: "geocoder provider error: status 200: no results in OK response",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var query url.Values
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query()
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer svr.Close()

			endpoint := testutil.Must(url.Parse(svr.URL + "/geocode/json"))(t)
			provider := geocoder.NewGoogle(endpoint, "secret", svr.Client())
			pt, err := provider.Coordinates(context.Background(), "850 Bryant Street", "San Francisco, CA, US")
			require.Equal(t, "850 Bryant Street, San Francisco, CA, US", query.Get("address"))
			require.Equal(t, "secret", query.Get("key"))
			if tc.expectedErr != "" {
				require.EqualError(t, err, tc.expectedErr)
				var perr *types.ProviderError
				require.ErrorAs(t, err, &perr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedPoint, pt)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		svr := httptest.NewServer(http.NotFoundHandler())
		endpoint := testutil.Must(url.Parse(svr.URL))(t)
		svr.Close()

		provider := geocoder.NewGoogle(endpoint, "", nil)
		_, err := provider.Coordinates(context.Background(), "850 Bryant Street", "")
		var perr *types.ProviderError
		require.ErrorAs(t, err, &perr)
		require.Zero(t, perr.Status)
	})
}
