package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_server_uploads_total",
			Help: "Total number of upload attempts by status.",
		},
		[]string{"status"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_server_generations_total",
			Help: "Total number of script generation attempts by status.",
		},
		[]string{"status"},
	)

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "script_server_generation_duration_seconds",
		Help:    "Duration of successful script generations.",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 900},
	})

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_server_downloads_total",
			Help: "Total number of artifact downloads by file.",
		},
		[]string{"file"},
	)
)

// outcome turns a response status into a metric label.
func outcome(statusCode int) string {
	switch {
	case statusCode < 400:
		return "success"
	case statusCode < 500:
		return "rejected"
	default:
		return "error"
	}
}
