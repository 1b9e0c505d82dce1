package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

var log = logging.Logger("feed")

// DefaultURL is the DataSF film locations dump.
const DefaultURL = "http://data.sfgov.org/resource/yitu-d5am.json"

const maxErrorBody = 1 << 10

// HTTPFeed pulls the full film locations dump over HTTP.
type HTTPFeed struct {
	url    *url.URL
	client *http.Client
}

var _ types.FeedSource = (*HTTPFeed)(nil)

// NewHTTPFeed returns a feed reading from u.
func NewHTTPFeed(u *url.URL, client *http.Client) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{url: u, client: client}
}

func (f *HTTPFeed) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	ctx, s := telemetry.StartSpan(ctx, "HTTPFeed.Fetch")
	defer s.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url.String(), nil)
	if err != nil {
		return nil, &types.ProviderError{Provider: "feed", Err: err}
	}
	res, err := f.client.Do(req)
	if err != nil {
		telemetry.Error(s, err, "fetching feed")
		return nil, &types.ProviderError{Provider: "feed", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		err := &types.ProviderError{Provider: "feed", Status: res.StatusCode, Data: string(body)}
		telemetry.Error(s, err, "fetching feed")
		return nil, err
	}

	records, err := Decode(res.Body)
	if err != nil {
		telemetry.Error(s, err, "decoding feed")
		return nil, &types.ProviderError{Provider: "feed", Status: res.StatusCode, Err: err}
	}
	log.Infow("fetched feed", "url", f.url.String(), "records", len(records))
	return records, nil
}

// Decode reads a JSON array of raw film location records.
func Decode(r io.Reader) ([]types.RawRecord, error) {
	var records []types.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	if records == nil {
		records = []types.RawRecord{}
	}
	return records, nil
}

// Static is a feed serving a fixed set of records.
type Static []types.RawRecord

func (s Static) Fetch(context.Context) ([]types.RawRecord, error) {
	return s, nil
}
