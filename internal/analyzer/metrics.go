package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poker_coach_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poker_coach_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poker_coach_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts reported by the AI API.",
			Buckets: prometheus.LinearBuckets(100, 100, 20), // 100 .. 2000
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poker_coach_ai_completion_tokens",
			Help:    "Histogram of completion token counts reported by the AI API.",
			Buckets: prometheus.LinearBuckets(50, 50, 20),
		},
		[]string{"model"},
	)
	// Оценка до отправки: растет с каждой улицей, потому что контекст копится
	contextEstimatedTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poker_coach_context_estimated_tokens",
			Help:    "Estimated token count of the conversation sent for analysis.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
	)
	analysisOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poker_coach_analysis_total",
			Help: "Hand analyses by outcome.",
		},
		[]string{"outcome"},
	)
)
