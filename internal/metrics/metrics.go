// Package metrics exposes prometheus collectors for the session engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbt_sessions_started_total",
			Help: "Sessions started, by difficulty setting",
		},
		[]string{"difficulty"},
	)

	// status: completed or auto_submitted
	SessionsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbt_sessions_submitted_total",
			Help: "Sessions that reached a terminal state",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cbt_active_sessions",
			Help: "Sessions currently in progress",
		},
	)

	ScorePercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cbt_score_percent",
			Help:    "Distribution of session percentages",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	DocumentsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbt_documents_imported_total",
			Help: "Documents imported, by kind",
		},
		[]string{"kind"},
	)
)

func Handler() http.Handler { return promhttp.Handler() }
