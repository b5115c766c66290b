package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poker_coach_pipeline_total",
			Help: "Button press cycles by street and outcome.",
		},
		[]string{"street", "outcome"},
	)
	pipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poker_coach_pipeline_duration_seconds",
			Help:    "Duration of capture pipelines.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"street"},
	)
	ignoredPresses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poker_coach_ignored_presses_total",
			Help: "Short presses ignored because a pipeline was running.",
		},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poker_coach_active_sessions",
			Help: "Number of connected coaching sessions.",
		},
	)
)
