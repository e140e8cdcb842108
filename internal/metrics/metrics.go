// Package metrics exposes Prometheus collectors for the harvester service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	harvestUnitsTotal          *prometheus.CounterVec
	harvestSightingsTotal      *prometheus.CounterVec
	harvestUnitDurationSeconds *prometheus.HistogramVec
	harvestRetriesTotal        *prometheus.CounterVec
	harvestActiveWorkers       prometheus.Gauge
	enrichmentCasesTotal       *prometheus.CounterVec
	portalRequestsTotal        *prometheus.CounterVec
	portalRequestDuration      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		harvestUnitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_units_total",
				Help: "Total (court, date) units processed, labeled by court and outcome.",
			},
			[]string{"court", "status"},
		)

		harvestSightingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_sightings_total",
				Help: "Total causelist sightings extracted, labeled by court.",
			},
			[]string{"court"},
		)

		harvestUnitDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_unit_duration_seconds",
				Help:    "Histogram of per-unit harvest latencies, labeled by court category.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"category"},
		)

		harvestRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_retries_total",
				Help: "Total retry attempts after transient unit failures, labeled by court.",
			},
			[]string{"court"},
		)

		harvestActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_active_workers",
				Help: "Number of workers currently harvesting a unit.",
			},
		)

		enrichmentCasesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrichment_cases_total",
				Help: "Total cases processed by the enrichment pass, labeled by court and outcome.",
			},
			[]string{"court", "status"},
		)

		portalRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_requests_total",
				Help: "Total requests issued to the judiciary portal, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		portalRequestDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portal_request_duration_seconds",
				Help:    "Histogram of portal request latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total admin API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of admin API request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUnit records the outcome of one harvest unit.
func ObserveUnit(court, status string) {
	Init()
	harvestUnitsTotal.WithLabelValues(court, status).Inc()
}

// AddSightings adds the sighting count of a committed unit.
func AddSightings(court string, n int) {
	Init()
	if n > 0 {
		harvestSightingsTotal.WithLabelValues(court).Add(float64(n))
	}
}

// ObserveUnitDuration records how long a unit's request cascade took.
func ObserveUnitDuration(category string, duration time.Duration) {
	Init()
	harvestUnitDurationSeconds.WithLabelValues(category).Observe(duration.Seconds())
}

// IncRetries counts one retry attempt after a transient failure.
func IncRetries(court string) {
	Init()
	harvestRetriesTotal.WithLabelValues(court).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	harvestActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	harvestActiveWorkers.Dec()
}

// ObserveEnrichment records the outcome of one enrichment attempt.
func ObserveEnrichment(court, status string) {
	Init()
	enrichmentCasesTotal.WithLabelValues(court, status).Inc()
}

// ObservePortalRequest records one request against the portal.
func ObservePortalRequest(method string, code int, duration time.Duration) {
	Init()
	portalRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	portalRequestDuration.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the admin API request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
