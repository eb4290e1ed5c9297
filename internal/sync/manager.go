// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/punchkit/punchsync/internal/config"
	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/models"
)

// ServerSource supplies server configurations and employee badge lookups.
// Implemented by *database.DB.
type ServerSource interface {
	ListEnabledServers(ctx context.Context) ([]*models.TerminalServer, error)
	GetServer(ctx context.Context, id string) (*models.TerminalServer, error)
	GetEmployeeDeviceID(ctx context.Context, employeeID string) (string, error)
}

// Dispatcher hands scheduled work to the job bus instead of running it
// inline on the ticker goroutine.
type Dispatcher interface {
	DispatchScheduledSync(ctx context.Context) error
}

// ImportRequest is one operator-initiated import. ServerID and EmployeeID
// are optional narrowing filters.
type ImportRequest struct {
	Start      time.Time
	End        time.Time
	ServerID   string
	EmployeeID string
}

// Manager drives the sync schedule and serves manual imports.
//
// On each tick it dispatches one fleet run; for every enabled server the
// fetch window is [checkpoint, now), falling back to [now-lookback, now) for
// servers that have never synced. Windows are computed at execution time so
// a delayed job still covers up to the current moment.
//
// Manager implements suture.Service via Serve.
type Manager struct {
	db           ServerSource
	fleet        *Fleet
	dispatcher   Dispatcher
	interval     time.Duration
	lookback     time.Duration
	cycleTimeout time.Duration
}

// NewManager builds the schedule driver. dispatcher may be nil, in which
// case ticks run the fleet inline.
func NewManager(db ServerSource, fleet *Fleet, dispatcher Dispatcher, cfg *config.SyncConfig) *Manager {
	return &Manager{
		db:           db,
		fleet:        fleet,
		dispatcher:   dispatcher,
		interval:     cfg.Interval,
		lookback:     cfg.Lookback,
		cycleTimeout: cfg.CycleTimeout,
	}
}

// SetDispatcher wires the job bus after construction. The bus needs the
// manager to execute jobs and the manager needs the bus to dispatch them;
// the bus is built second and closes the loop here.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.dispatcher = d
}

// Serve runs the periodic schedule until ctx is cancelled. An initial run
// fires one interval after startup, not immediately, so a crash-looping
// process does not hammer the terminal servers.
func (m *Manager) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", m.interval).
		Dur("lookback", m.lookback).
		Msg("Sync schedule started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Sync schedule stopped")
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	if m.dispatcher != nil {
		if err := m.dispatcher.DispatchScheduledSync(ctx); err != nil {
			logging.Error().Err(err).Msg("Failed to dispatch scheduled sync")
		}
		return
	}
	if _, err := m.RunScheduled(ctx); err != nil {
		logging.Error().Err(err).Msg("Scheduled sync failed")
	}
}

// RunScheduled executes one fleet pass over all enabled servers, each with
// its checkpoint-based window and the bounded cycle timeout.
func (m *Manager) RunScheduled(ctx context.Context) (*FleetReport, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cycleTimeout)
	defer cancel()

	servers, err := m.db.ListEnabledServers(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNoEnabledServers) {
			logging.Warn().Msg("No enabled terminal servers, skipping scheduled sync")
		}
		return nil, err
	}

	now := time.Now().UTC()
	report := m.fleet.RunAll(ctx, servers, func(server *models.TerminalServer) Window {
		return m.scheduledWindow(server, now)
	}, "")

	logging.Info().
		Int("servers", len(servers)).
		Int("total_inserted", report.TotalInserted).
		Int("total_skipped", report.TotalSkipped).
		Msg("Scheduled sync completed")
	return report, nil
}

// scheduledWindow is [checkpoint, now), or [now-lookback, now) for a server
// that has never completed a cycle. Consecutive windows share their
// boundary instant; the half-open interval means no gap and no overlap.
func (m *Manager) scheduledWindow(server *models.TerminalServer, now time.Time) Window {
	start := now.Add(-m.lookback)
	if server.LastSuccessfulSync != nil {
		start = server.LastSuccessfulSync.UTC()
	}
	return Window{Start: start, End: now}
}

// ImportAttendance runs a manual import for an explicit window, optionally
// narrowed to one server and one employee. Runs synchronously under the
// cycle timeout and returns the aggregate report.
func (m *Manager) ImportAttendance(ctx context.Context, req ImportRequest) (*FleetReport, error) {
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("invalid window: end %s is not after start %s",
			req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339))
	}

	ctx, cancel := context.WithTimeout(ctx, m.cycleTimeout)
	defer cancel()

	var servers []*models.TerminalServer
	if req.ServerID != "" {
		server, err := m.db.GetServer(ctx, req.ServerID)
		if err != nil {
			return nil, err
		}
		servers = []*models.TerminalServer{server}
	} else {
		var err error
		servers, err = m.db.ListEnabledServers(ctx)
		if err != nil {
			return nil, err
		}
	}

	badge := ""
	if req.EmployeeID != "" {
		var err error
		badge, err = m.db.GetEmployeeDeviceID(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("employee %s not found", req.EmployeeID)
			}
			return nil, err
		}
		if badge == "" {
			return nil, fmt.Errorf("employee %s has no attendance device id", req.EmployeeID)
		}
	}

	window := Window{Start: req.Start.UTC(), End: req.End.UTC()}
	report := m.fleet.RunAll(ctx, servers, func(*models.TerminalServer) Window {
		return window
	}, badge)

	logging.Info().
		Time("start", window.Start).
		Time("end", window.End).
		Str("server_id", req.ServerID).
		Str("employee_id", req.EmployeeID).
		Int("total_inserted", report.TotalInserted).
		Int("total_skipped", report.TotalSkipped).
		Msg("Manual import completed")
	return report, nil
}

// Fleet exposes the coordinator for the API layer's cache invalidation on
// server config updates.
func (m *Manager) Fleet() *Fleet {
	return m.fleet
}
