package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts finished analyses by outcome ("success" or an error kind).
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardiac_xai",
		Name:      "analyses_total",
		Help:      "Total number of analyze calls, labeled by outcome kind.",
	}, []string{"kind"})

	AnalysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cardiac_xai",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time of one analyze call, validation through parsing.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cardiac_xai",
		Name:      "upstream_duration_seconds",
		Help:      "Time spent waiting on the inference provider.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cardiac_xai",
		Name:      "analyses_in_flight",
		Help:      "Current number of analyze calls being processed.",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			UpstreamDurationSeconds,
			InFlight,
		)
	})
}
