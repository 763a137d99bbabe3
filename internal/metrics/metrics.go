package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the analytics service. Registered on the
// default registry and exposed through /metrics.
var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nfl_analytics_analyses_total",
		Help: "Game analyses produced, labeled by result (ok, error, cache_hit).",
	}, []string{"result"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nfl_analytics_analysis_duration_seconds",
		Help:    "End-to-end duration of one game analysis, fetches included.",
		Buckets: prometheus.DefBuckets,
	})

	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nfl_analytics_provider_requests_total",
		Help: "Upstream feed requests, labeled by feed and outcome.",
	}, []string{"feed", "outcome"})

	PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nfl_analytics_poll_cycles_total",
		Help: "Poller cycles, labeled by outcome.",
	}, []string{"outcome"})

	WSClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nfl_analytics_ws_clients",
		Help: "Currently connected websocket clients.",
	})
)
