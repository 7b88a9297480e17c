// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

// Package metrics provides Prometheus instrumentation for the sync engine:
// upstream API call latency and outcomes, rate-limit pressure, per-job run
// outcomes, and reconciliation throughput.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream API metrics
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_api_call_duration_seconds",
			Help:    "Duration of upstream API calls in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	APICallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_api_call_errors_total",
			Help: "Total upstream API calls that exhausted retries or failed hard",
		},
		[]string{"provider", "error_type"}, // "transport", "server"
	)

	// RateLimited429 counts HTTP 429 responses per provider. Monotonic within
	// the process lifetime.
	RateLimited429 = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_rate_limited_total",
			Help: "Total HTTP 429 responses received, by provider",
		},
		[]string{"provider"},
	)

	RateLimitWaitSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_wait_seconds_total",
			Help: "Cumulative seconds spent waiting on rate-limit gates and backoff sleeps",
		},
		[]string{"provider"},
	)

	// Sync job metrics
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of sync job runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"job"},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total sync job runs by final status",
		},
		[]string{"job", "status"}, // "succeeded", "partial", "failed", "paused", "already_running"
	)

	SyncBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_batch_size",
			Help:    "Number of records per fetched batch",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total sync errors by type",
		},
		[]string{"type"}, // "item"
	)

	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_fetched_total",
			Help: "Total records fetched from upstream providers",
		},
		[]string{"job"},
	)

	RecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_upserted_total",
			Help: "Total records reconciled into the store",
		},
		[]string{"job"},
	)

	// Entity matching metrics
	MatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_match_attempts_total",
			Help: "Total entity match attempts by outcome",
		},
		[]string{"outcome"}, // "matched", "no_match", "cached"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breakers by outcome",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)
)

// RecordSyncRun records the duration and final status of one sync run.
func RecordSyncRun(job, status string, duration time.Duration) {
	SyncDuration.WithLabelValues(job).Observe(duration.Seconds())
	SyncRuns.WithLabelValues(job, status).Inc()
}
