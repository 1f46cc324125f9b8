package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cro_analysis_runs_total",
		Help: "Total analysis method runs by method and status",
	}, []string{"method", "status"})

	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cro_analysis_duration_seconds",
		Help:    "Duration of a single analysis method",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method"})

	analysisRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cro_analysis_table_rows",
		Help:    "Number of rows in analyzed experiment tables",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})
)
