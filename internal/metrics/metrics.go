// README: Prometheus collectors for match requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_match_requests_total",
			Help: "Total number of match requests by sort strategy",
		},
		[]string{"sort"},
	)

	// MatchCandidates counts evaluated candidates by outcome: passed, failed or invalid.
	MatchCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_match_candidates_total",
			Help: "Total number of candidates evaluated by outcome",
		},
		[]string{"outcome"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "carpool_match_duration_seconds",
			Help:    "Duration of match evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
