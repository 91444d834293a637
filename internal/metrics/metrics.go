package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Catalog
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reactions_total",
			Help: "Applied reactions by action",
		},
		[]string{"action"},
	)

	ViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_movie_views_total",
			Help: "Recorded movie views",
		},
	)

	VisitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_recent_visits_total",
			Help: "Visits recorded into users' recently visited lists",
		},
	)

	RecommendationsServed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_recommendations_returned",
			Help:    "Number of movies returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Database
	TxRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_db_tx_retries_total",
			Help: "Transactions retried after serialization failure or deadlock",
		},
		[]string{"sqlstate"},
	)

	TxDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_db_tx_duration_seconds",
			Help:    "Duration of catalog transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordReaction records an applied reaction
func RecordReaction(action string) {
	ReactionsTotal.WithLabelValues(action).Inc()
}

func RecordView() {
	ViewsTotal.Inc()
}

func RecordVisit() {
	VisitsTotal.Inc()
}

func RecordRecommendations(count int) {
	RecommendationsServed.Observe(float64(count))
}

// RecordTxRetry records a retried transaction with its SQLSTATE
func RecordTxRetry(sqlState string) {
	TxRetries.WithLabelValues(sqlState).Inc()
}

// RecordTx records a transaction duration; outcome is "commit" or "rollback"
func RecordTx(duration time.Duration, err error) {
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	TxDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Handler отдает метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
