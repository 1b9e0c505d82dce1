package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sfmovies/locations-service/pkg/build"
	"github.com/sfmovies/locations-service/pkg/types"
)

const locationsPath = "/api/locations"

type ErrFailedResponse struct {
	StatusCode int
	Body       string
}

func errFromResponse(res *http.Response) ErrFailedResponse {
	err := ErrFailedResponse{StatusCode: res.StatusCode}

	message, merr := io.ReadAll(res.Body)
	if merr != nil {
		err.Body = merr.Error()
	} else {
		err.Body = string(message)
	}
	return err
}

func (e ErrFailedResponse) Error() string {
	return fmt.Sprintf("http request failed, status: %d %s, message: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client talks to a film locations HTTP server.
type Client struct {
	serviceURL url.URL
	httpClient *http.Client
}

var (
	_ types.Getter   = (*Client)(nil)
	_ types.Searcher = (*Client)(nil)
	_ types.Rater    = (*Client)(nil)
)

func (c *Client) Random(ctx context.Context) ([]types.Record, error) {
	var records []types.Record
	err := c.do(ctx, http.MethodGet, c.serviceURL.JoinPath(locationsPath, "explore"), &records)
	return records, err
}

func (c *Client) MostPopular(ctx context.Context) ([]types.Record, error) {
	var records []types.Record
	err := c.do(ctx, http.MethodGet, c.serviceURL.JoinPath(locationsPath, "popular"), &records)
	return records, err
}

func (c *Client) Search(ctx context.Context, query string) ([]types.Record, error) {
	u := c.serviceURL.JoinPath(locationsPath, "search")
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	var records []types.Record
	err := c.do(ctx, http.MethodGet, u, &records)
	return records, err
}

func (c *Client) Get(ctx context.Context, id string) (types.Record, error) {
	var record types.Record
	err := c.do(ctx, http.MethodGet, c.serviceURL.JoinPath(locationsPath, id), &record)
	return record, err
}

func (c *Client) IncreaseRating(ctx context.Context, id string, increment uint64) (types.Record, error) {
	u := c.serviceURL.JoinPath(locationsPath, id, "rating")
	q := u.Query()
	q.Set("increment", strconv.FormatUint(increment, 10))
	u.RawQuery = q.Encode()

	var record types.Record
	err := c.do(ctx, http.MethodPost, u, &record)
	return record, err
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to server: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errFromResponse(res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type Option func(*Client)

// WithHTTPClient configures the HTTP client to use for making requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(serviceURL url.URL, options ...Option) *Client {
	c := Client{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(&c)
	}
	return &c
}
