// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of requests sent to the catalog API",
		},
		[]string{"operation", "outcome"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CredentialEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_credential_evictions_total",
			Help: "Number of times a rejected bearer credential was discarded",
		},
	)

	SuggestionFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_fetches_total",
			Help: "Suggestion fetches by how their response was handled",
		},
		[]string{"result"}, // applied, superseded, cancelled, failed
	)

	CompareMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compare_set_mutations_total",
			Help: "Compare set mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CompareSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compare_set_size",
			Help: "Current number of products in the compare set",
		},
	)

	CoordinatorFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_query_fetches_total",
			Help: "Product list fetches issued by the filter coordinator",
		},
		[]string{"route", "result"}, // route: search|list
	)
)
