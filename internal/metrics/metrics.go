// Package metrics registers the Prometheus collectors exported on /metrics.
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
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsound_classifications_total",
			Help: "Book classifications by the strategy that produced them",
		},
		[]string{"source"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsound_recommendations_total",
			Help: "Music recommendations served, split by cached vibe hits",
		},
		[]string{"cached"},
	)

	MusicFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsound_music_fallback_total",
			Help: "Music searches answered from the curated fallback catalog",
		},
		[]string{"kind"}, // "tracks", "playlists"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfsound_upstream_request_seconds",
			Help:    "Latency of calls to external services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "status"},
	)
)

// RecordClassification counts a classification by source.
func RecordClassification(source string) {
	Classifications.WithLabelValues(source).Inc()
}

// RecordRecommendation counts a served recommendation.
func RecordRecommendation(cached bool) {
	Recommendations.WithLabelValues(strconv.FormatBool(cached)).Inc()
}

// RecordFallback counts a degraded music search.
func RecordFallback(kind string) {
	MusicFallbacks.WithLabelValues(kind).Inc()
}

// ObserveUpstream records the duration of one upstream call. status is the
// HTTP status code, or 0 for transport errors.
func ObserveUpstream(upstream string, status int, start time.Time) {
	UpstreamRequestDuration.WithLabelValues(upstream, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
