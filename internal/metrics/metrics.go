// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package metrics provides Prometheus instrumentation for sync cycles,
// vendor API calls, the dedup cache, and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cycle metrics
	SyncCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_cycles_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"server", "outcome"}, // outcome: success, partial, failed
	)

	SyncCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "punchsync_cycle_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"server"},
	)

	CheckinsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_checkins_inserted_total",
			Help: "Total number of canonical checkin events persisted",
		},
		[]string{"server"},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_records_skipped_total",
			Help: "Total number of raw records skipped by reason",
		},
		[]string{"server", "reason"}, // reason: missing_fields, invalid_time, unknown_log_type, employee_not_found, duplicate
	)

	ActiveCycles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "punchsync_active_cycles",
			Help: "Number of sync cycles currently executing",
		},
	)

	// Vendor API metrics
	VendorAPICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "punchsync_vendor_api_duration_seconds",
			Help:    "Duration of vendor API fetch calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"server"},
	)

	VendorAPIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_vendor_api_errors_total",
			Help: "Total number of vendor API call failures",
		},
		[]string{"server", "kind"}, // kind: transport, status, decode
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "punchsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Dedup cache metrics
	DedupCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punchsync_dedup_cache_hits_total",
			Help: "Duplicate checks answered by the Badger seen-key cache",
		},
	)

	DedupCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punchsync_dedup_cache_misses_total",
			Help: "Duplicate checks that fell through to the checkin store",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchsync_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"path", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "punchsync_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// Job dispatch metrics
	JobsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punchsync_jobs_dispatched_total",
			Help: "Sync jobs published to the dispatch bus",
		},
	)

	JobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punchsync_jobs_rejected_total",
			Help: "Sync jobs rejected because a cycle was already in flight",
		},
	)
)

// ObserveCycle records the outcome metrics for one completed cycle.
func ObserveCycle(serverID, outcome string, duration time.Duration) {
	SyncCyclesTotal.WithLabelValues(serverID, outcome).Inc()
	SyncCycleDuration.WithLabelValues(serverID).Observe(duration.Seconds())
}
