package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search queries served, by sort mode and outcome",
		},
		[]string{"sort", "outcome"}, // outcome: ok / degraded / error
	)

	EngagementFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engagement_fetch_duration_seconds",
			Help:      "Engagement score lookup duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"status"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the live index snapshot",
		},
	)

	IndexReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_reloads_total",
			Help:      "Index rebuilds attempted at runtime",
		},
		[]string{"result"}, // ok / error
	)
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(EngagementFetchDuration)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(IndexReloadsTotal)
}

// ObserveEngagementFetch records one engagement lookup.
func ObserveEngagementFetch(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EngagementFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// ObserveReload records a runtime rebuild and, on success, the new document count.
func ObserveReload(docs int, err error) {
	if err != nil {
		IndexReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	IndexReloadsTotal.WithLabelValues("ok").Inc()
	IndexDocuments.Set(float64(docs))
}
