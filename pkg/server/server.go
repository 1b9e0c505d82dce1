package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/build"
	"github.com/sfmovies/locations-service/pkg/service/popularity"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

var log = logging.Logger("server")

// ErrorLogger receives every error that ends in a 5xx response.
type ErrorLogger interface {
	Errorf(format string, args ...any)
}

type config struct {
	errorLogger ErrorLogger
	metrics     http.Handler
}

type Option func(*config)

// WithErrorLogger reports server errors to l, for example a
// [telemetry.SentryLogger].
func WithErrorLogger(l ErrorLogger) Option {
	return func(c *config) {
		c.errorLogger = l
	}
}

// WithMetricsHandler overrides the handler mounted on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *config) {
		c.metrics = h
	}
}

// ListenAndServe creates a new film locations HTTP server, and starts it up.
func ListenAndServe(addr string, service types.Service, opts ...Option) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewServer(service, opts...),
	}
	log.Infof("Listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewServer creates a new film locations HTTP server.
func NewServer(service types.Service, opts ...Option) *http.ServeMux {
	c := &config{errorLogger: log, metrics: telemetry.MetricsHandler()}
	for _, opt := range opts {
		opt(c)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", GetRootHandler())
	mux.HandleFunc("GET /api/locations/explore", GetExploreHandler(service, c.errorLogger))
	mux.HandleFunc("GET /api/locations/popular", GetPopularHandler(service, c.errorLogger))
	mux.HandleFunc("GET /api/locations/search", GetSearchHandler(service, c.errorLogger))
	mux.HandleFunc("GET /api/locations/search/{$}", GetSearchHandler(service, c.errorLogger))
	mux.HandleFunc("GET /api/locations/{id}", GetLocationHandler(service, c.errorLogger))
	mux.HandleFunc("POST /api/locations/{id}/rating", PostRatingHandler(service, c.errorLogger))
	mux.Handle("GET /metrics", c.metrics)
	return mux
}

// GetRootHandler displays version info when a GET request is sent to "/".
func GetRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fmt.Sprintf("🎬 locations-service %s\n", build.Version)))
		w.Write([]byte("- /api/locations/explore\n"))
		w.Write([]byte("- /api/locations/search?q=\n"))
		w.Write([]byte("- /api/locations/popular\n"))
	}
}

// GetExploreHandler returns a random sample of the catalog.
func GetExploreHandler(service types.Searcher, el ErrorLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, s := telemetry.StartSpan(r.Context(), "GetExploreHandler")
		defer s.End()

		records, err := service.Random(ctx)
		if err != nil {
			telemetry.Error(s, err, "exploring catalog")
			writeError(w, r, el, err)
			return
		}
		writeRecords(w, records)
	}
}

// GetPopularHandler returns the catalog ordered by popularity.
func GetPopularHandler(service types.Searcher, el ErrorLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, s := telemetry.StartSpan(r.Context(), "GetPopularHandler")
		defer s.End()

		records, err := service.MostPopular(ctx)
		if err != nil {
			telemetry.Error(s, err, "listing popular locations")
			writeError(w, r, el, err)
			return
		}
		writeRecords(w, records)
	}
}

// GetSearchHandler searches the catalog when a GET request is sent to
// "/api/locations/search?q={query}".
func GetSearchHandler(service types.Searcher, el ErrorLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, s := telemetry.StartSpan(r.Context(), "GetSearchHandler")
		defer s.End()

		qs := r.URL.Query()["q"]
		if len(qs) > 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("only one 'q' parameter is allowed, but got %d", len(qs))})
			return
		}
		var query string
		if len(qs) == 1 {
			query = qs[0]
		}

		records, err := service.Search(ctx, query)
		if err != nil {
			telemetry.Error(s, err, "searching catalog")
			writeError(w, r, el, err)
			return
		}
		writeRecords(w, records)
	}
}

// GetLocationHandler retrieves a single record by its id.
func GetLocationHandler(service types.Getter, el ErrorLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, s := telemetry.StartSpan(r.Context(), "GetLocationHandler")
		defer s.End()

		id := r.PathValue("id")
		record, err := service.Get(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrKeyNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("not found: %s", id)})
				return
			}
			telemetry.Error(s, err, "getting location")
			writeError(w, r, el, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

// PostRatingHandler increases the popularity of a record when a POST request
// is sent to "/api/locations/{id}/rating". The optional increment parameter
// defaults to 1.
func PostRatingHandler(service types.Rater, el ErrorLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, s := telemetry.StartSpan(r.Context(), "PostRatingHandler")
		defer s.End()

		id := r.PathValue("id")
		increment := uint64(1)
		if param := r.URL.Query().Get("increment"); param != "" {
			n, err := strconv.ParseUint(param, 10, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid increment: %s", param)})
				return
			}
			increment = n
		}

		record, err := service.IncreaseRating(ctx, id, increment)
		if err != nil {
			if errors.Is(err, types.ErrKeyNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("not found: %s", id)})
				return
			}
			telemetry.Error(s, err, "increasing rating")
			writeError(w, r, el, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusCode returns the HTTP status a service error is reported with.
func StatusCode(err error) int {
	var (
		perr *types.ProviderError
		serr *types.StoreError
	)
	switch {
	case errors.Is(err, types.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, popularity.ErrInvalidIncrement), errors.Is(err, types.ErrRatingOverflow):
		return http.StatusBadRequest
	case errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.As(err, &serr):
		return http.StatusServiceUnavailable
	default:
		// includes ErrBadConfig
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, el ErrorLogger, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		el.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeRecords(w http.ResponseWriter, records []types.Record) {
	if records == nil {
		records = []types.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("sending response: %s", err)
	}
}
