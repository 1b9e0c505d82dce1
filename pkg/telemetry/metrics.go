package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "locations"

// Registry holds every metric exported by the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// IngestedRecords counts raw records by ingestion outcome.
	IngestedRecords = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingested_records_total",
		Help:      "Raw feed records processed by ingestion, by outcome",
	}, []string{"outcome"})

	// GeocodeRequests counts calls to the coordinate provider by result.
	GeocodeRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_requests_total",
		Help:      "Geocoding calls, by result",
	}, []string{"result"})

	// CacheLookups counts response cache lookups.
	CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups, by cache and result",
	}, []string{"cache", "result"})

	// RatingIncrements counts successful popularity increments.
	RatingIncrements = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rating_increments_total",
		Help:      "Successful popularity increments",
	})
)

// MetricsHandler serves the service metrics in the prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
