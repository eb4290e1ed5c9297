// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/metrics"
	"github.com/punchkit/punchsync/internal/models"
)

// CheckinStore persists normalized checkin events.
type CheckinStore interface {
	InsertCheckin(ctx context.Context, event *models.CheckinEvent) error
}

// RunSummarySink persists cycle summaries.
type RunSummarySink interface {
	InsertRunSummary(ctx context.Context, summary *models.RunSummary) error
}

// CheckpointStore advances a server's last-successful-sync watermark.
type CheckpointStore interface {
	AdvanceCheckpoint(ctx context.Context, serverID string, t time.Time) error
}

// DuplicateGate answers whether an event identity is already persisted and
// remembers newly inserted ones.
type DuplicateGate interface {
	Seen(ctx context.Context, event *models.CheckinEvent) (bool, error)
	Record(event *models.CheckinEvent)
}

// Window is one half-open fetch interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// CycleResult is the outcome of one server cycle.
type CycleResult struct {
	ServerID string             `json:"server_id"`
	Inserted int                `json:"inserted"`
	Skipped  int                `json:"skipped"`
	Summary  *models.RunSummary `json:"summary,omitempty"`
}

// Orchestrator executes sync cycles against injected collaborators. All
// dependencies are interfaces so tests can run a full cycle with fakes and
// no network or database.
type Orchestrator struct {
	employees   EmployeeResolver
	checkins    CheckinStore
	summaries   RunSummarySink
	checkpoints CheckpointStore
	gate        DuplicateGate
}

// NewOrchestrator wires an orchestrator to its stores.
func NewOrchestrator(employees EmployeeResolver, checkins CheckinStore, summaries RunSummarySink, checkpoints CheckpointStore, gate DuplicateGate) *Orchestrator {
	return &Orchestrator{
		employees:   employees,
		checkins:    checkins,
		summaries:   summaries,
		checkpoints: checkpoints,
		gate:        gate,
	}
}

// RunCycle executes one cycle for one server: fetch the window, normalize
// and dedup every record in vendor order, persist the summary, then advance
// the checkpoint to the window end.
//
// Per-record skips never fail the cycle; the checkpoint advances even when
// every record was skipped. A fetch failure (or any store error) aborts
// before the checkpoint moves, so the next scheduled window re-covers this
// one.
func (o *Orchestrator) RunCycle(ctx context.Context, server *models.TerminalServer, fetcher RecordFetcher, window Window, badgeFilter string) (*CycleResult, error) {
	start := time.Now()
	metrics.ActiveCycles.Inc()
	defer metrics.ActiveCycles.Dec()

	log := logging.With().
		Str("server_id", server.ID).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Logger()

	records, err := fetcher.FetchTransactions(ctx, TransactionRequest{
		Start:       window.Start,
		End:         window.End,
		BadgeNumber: badgeFilter,
	})
	if err != nil {
		metrics.ObserveCycle(server.ID, "failed", time.Since(start))
		o.recordFailure(ctx, server, window, badgeFilter)
		return nil, fmt.Errorf("failed to fetch transactions from %s: %w", server.ID, err)
	}

	summary := &models.RunSummary{
		ID:             uuid.New(),
		ServerID:       server.ID,
		StartDate:      window.Start,
		EndDate:        window.End,
		EmployeeFilter: badgeFilter,
	}

	normalizer := NewNormalizer(server, o.employees)

	for _, raw := range records {
		if err := ctx.Err(); err != nil {
			metrics.ObserveCycle(server.ID, "cancelled", time.Since(start))
			return nil, err
		}

		event, skip, err := normalizer.Normalize(ctx, server.ID, raw)
		if err != nil {
			metrics.ObserveCycle(server.ID, "failed", time.Since(start))
			return nil, err
		}
		if skip != nil {
			o.countSkip(server.ID, summary, skip)
			continue
		}

		seen, err := o.gate.Seen(ctx, event)
		if err != nil {
			metrics.ObserveCycle(server.ID, "failed", time.Since(start))
			return nil, err
		}
		if seen {
			o.countSkip(server.ID, summary, &models.SkipRecord{
				BadgeNumber: raw.GetString(normalizer.bindings.BadgeNumber),
				VerifyTime:  raw.GetString(normalizer.bindings.VerifyTime),
				Status:      raw.GetString(normalizer.bindings.Status),
				DeviceID:    event.DeviceID,
				GPSLocation: event.GPSLocation,
				Reason:      "duplicate check-in record",
			})
			continue
		}

		if err := o.checkins.InsertCheckin(ctx, event); err != nil {
			metrics.ObserveCycle(server.ID, "failed", time.Since(start))
			return nil, fmt.Errorf("failed to persist checkin: %w", err)
		}
		o.gate.Record(event)
		summary.Inserted++
		metrics.CheckinsInserted.WithLabelValues(server.ID).Inc()
	}

	summary.Finalize()
	if server.CreateLogs {
		if err := o.summaries.InsertRunSummary(ctx, summary); err != nil {
			metrics.ObserveCycle(server.ID, "failed", time.Since(start))
			return nil, fmt.Errorf("failed to persist run summary: %w", err)
		}
	}

	if err := o.checkpoints.AdvanceCheckpoint(ctx, server.ID, window.End); err != nil {
		metrics.ObserveCycle(server.ID, "failed", time.Since(start))
		return nil, fmt.Errorf("failed to advance checkpoint: %w", err)
	}

	outcome := "success"
	if summary.Skipped > 0 {
		outcome = "partial"
	}
	metrics.ObserveCycle(server.ID, outcome, time.Since(start))

	log.Info().
		Int("inserted", summary.Inserted).
		Int("skipped", summary.Skipped).
		Str("status", summary.Status).
		Int("fetched", len(records)).
		Msg("Sync cycle completed")

	result := &CycleResult{
		ServerID: server.ID,
		Inserted: summary.Inserted,
		Skipped:  summary.Skipped,
	}
	if server.CreateLogs {
		result.Summary = summary
	}
	return result, nil
}

// recordFailure persists a Failed summary so aborted cycles stay visible to
// operators. Best effort; the fetch error is what the caller sees.
func (o *Orchestrator) recordFailure(ctx context.Context, server *models.TerminalServer, window Window, badgeFilter string) {
	if !server.CreateLogs {
		return
	}
	summary := &models.RunSummary{
		ID:             uuid.New(),
		ServerID:       server.ID,
		StartDate:      window.Start,
		EndDate:        window.End,
		EmployeeFilter: badgeFilter,
		Status:         models.RunStatusFailed,
	}
	if err := o.summaries.InsertRunSummary(ctx, summary); err != nil {
		logging.Warn().Err(err).Str("server_id", server.ID).Msg("Failed to persist failure summary")
	}
}

func (o *Orchestrator) countSkip(serverID string, summary *models.RunSummary, skip *models.SkipRecord) {
	summary.AddSkip(*skip)
	metrics.RecordsSkipped.WithLabelValues(serverID, skipMetricReason(skip.Reason)).Inc()
	logging.Debug().
		Str("server_id", serverID).
		Str("badge_number", skip.BadgeNumber).
		Str("reason", skip.Reason).
		Msg("Record skipped")
}

// skipMetricReason collapses free-form skip reasons to a bounded label set.
func skipMetricReason(reason string) string {
	switch {
	case strings.HasPrefix(reason, "missing badge number"):
		return "missing_fields"
	case strings.HasPrefix(reason, "invalid verify time"):
		return "invalid_time"
	case strings.HasPrefix(reason, "unknown log type"):
		return "unknown_log_type"
	case strings.HasPrefix(reason, "employee not found"):
		return "employee_not_found"
	case reason == "duplicate check-in record":
		return "duplicate"
	default:
		return "other"
	}
}
