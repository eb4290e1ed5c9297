// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/metrics"
	"github.com/punchkit/punchsync/internal/models"
)

// BreakerFetcher wraps a RecordFetcher with a circuit breaker so a dead or
// flapping terminal server stops consuming its cycle timeout on every tick.
// Each server gets its own breaker; one open circuit never affects the rest
// of the fleet.
//
// The breaker uses real time for its interval and timeout. Tests exercise
// the wrapped fetcher directly.
type BreakerFetcher struct {
	inner RecordFetcher
	cb    *gobreaker.CircuitBreaker[[]models.RawPunchRecord]
}

// NewBreakerFetcher wraps fetcher with a per-server breaker. The circuit
// opens after 5 consecutive failures and probes again after 2 minutes.
func NewBreakerFetcher(serverID string, fetcher RecordFetcher) *BreakerFetcher {
	name := "terminal-" + serverID

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.RawPunchRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= 5
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("Opening terminal server circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Terminal server circuit state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerFetcher{inner: fetcher, cb: cb}
}

// FetchTransactions runs the wrapped fetch through the breaker. When the
// circuit is open the call fails fast with gobreaker.ErrOpenState and no
// network traffic happens.
func (b *BreakerFetcher) FetchTransactions(ctx context.Context, req TransactionRequest) ([]models.RawPunchRecord, error) {
	return b.cb.Execute(func() ([]models.RawPunchRecord, error) {
		return b.inner.FetchTransactions(ctx, req)
	})
}

// Ping bypasses the breaker: connection tests are operator-initiated and
// should report the real endpoint state even while the circuit is open.
func (b *BreakerFetcher) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
