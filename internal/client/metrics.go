package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_studio_api_requests_total",
			Help: "Total number of requests to the prompts REST API.",
		},
		[]string{"operation", "status"},
	)
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_studio_api_request_duration_seconds",
			Help:    "Histogram of prompts REST API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
