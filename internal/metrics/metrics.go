// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Recommendation pipeline outcomes and pool sizes
// - Upstream provider calls, rate limiting and circuit breaker state
// - Metrics cache efficiency

var (
	// API Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openchain_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchain_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Recommendation Pipeline Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openchain_recommendation_duration_seconds",
			Help:    "End-to-end recommendation pipeline duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"anchor_kind", "target_kind"},
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchain_recommendation_errors_total",
			Help: "Total number of failed recommendation requests by error type",
		},
		[]string{"error_type"},
	)

	CandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openchain_candidate_pool_size",
			Help:    "Assembled candidate pool size before stratification",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 200},
		},
		[]string{"target_kind"},
	)

	// Provider Metrics
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openchain_provider_call_duration_seconds",
			Help:    "Duration of upstream provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ProviderCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchain_provider_call_errors_total",
			Help: "Total number of upstream provider call failures",
		},
		[]string{"operation", "classification"}, // "not_found", "rate_limited", "timeout", "unavailable"
	)

	ProviderRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openchain_provider_rate_limited_total",
			Help: "Total number of upstream rate-limit rejections",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openchain_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openchain_metrics_cache_hits_total",
			Help: "Total number of metrics cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openchain_metrics_cache_misses_total",
			Help: "Total number of metrics cache misses",
		},
	)
)
