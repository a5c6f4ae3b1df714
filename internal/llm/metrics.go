package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_server_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "script_server_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "script_server_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts reported by the provider.",
			Buckets: prometheus.ExponentialBuckets(500, 2, 8), // 500 .. 64000
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "script_server_ai_completion_tokens",
			Help:    "Histogram of completion token counts reported by the provider.",
			Buckets: prometheus.ExponentialBuckets(250, 2, 8), // 250 .. 32000
		},
		[]string{"model"},
	)
)

func recordRequest(model, status string, duration time.Duration) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": status}).Inc()
	if status == "success" {
		aiRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration.Seconds())
	}
}

func recordUsage(model string, usage UsageInfo) {
	if usage.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.CompletionTokens))
}
