package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/types"
)

// DefaultGoogleURL is the Google Maps geocoding endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

const maxErrorBody = 1 << 10

// Google is a coordinate provider backed by the Google Maps geocoding API.
type Google struct {
	endpoint *url.URL
	apiKey   string
	client   *http.Client
}

var _ types.CoordinateProvider = (*Google)(nil)

// NewGoogle creates a provider calling endpoint. apiKey may be empty for
// endpoints that do not need one.
func NewGoogle(endpoint *url.URL, apiKey string, client *http.Client) *Google {
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{endpoint: endpoint, apiKey: apiKey, client: client}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		Geometry struct {
			Location geo.Point `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Google) Coordinates(ctx context.Context, address, cityHint string) (*geo.Point, error) {
	q := url.Values{}
	if cityHint != "" {
		q.Set("address", fmt.Sprintf("%s, %s", address, cityHint))
	} else {
		q.Set("address", address)
	}
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}
	u := *g.endpoint
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &types.ProviderError{Provider: "geocoder", Err: err}
	}
	res, err := g.client.Do(req)
	if err != nil {
		return nil, &types.ProviderError{Provider: "geocoder", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &types.ProviderError{Provider: "geocoder", Status: res.StatusCode, Data: string(body)}
	}

	var data googleResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, &types.ProviderError{Provider: "geocoder", Status: res.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	switch data.Status {
	case statusZeroResults:
		return nil, nil
	case statusOK:
	default:
		msg := data.Status
		if data.ErrorMessage != "" {
			msg = fmt.Sprintf("%s: %s", data.Status, data.ErrorMessage)
		}
		return nil, &types.ProviderError{Provider: "geocoder", Status: res.StatusCode, Data: msg}
	}
	if len(data.Results) == 0 {
		return nil, &types.ProviderError{Provider: "geocoder", Status: res.StatusCode, Data: "no results in OK response"}
	}
	pt := data.Results[0].Geometry.Location
	return &pt, nil
}
