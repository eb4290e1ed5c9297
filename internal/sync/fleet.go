// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"sync"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/metrics"
	"github.com/punchkit/punchsync/internal/models"
)

// FetcherFactory builds the vendor client for one server. The production
// factory returns a breaker-wrapped TerminalClient; tests inject fakes.
type FetcherFactory func(server *models.TerminalServer) RecordFetcher

// ServerOutcome is one server's line in a fleet report.
type ServerOutcome struct {
	ServerID string `json:"server_id"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// FleetReport aggregates one fan-out over the enabled servers.
type FleetReport struct {
	TotalInserted int             `json:"total_inserted"`
	TotalSkipped  int             `json:"total_skipped"`
	Details       []ServerOutcome `json:"details"`
}

// Failed reports whether every server in the run errored.
func (r *FleetReport) Failed() bool {
	if len(r.Details) == 0 {
		return true
	}
	for _, d := range r.Details {
		if d.Error == "" {
			return false
		}
	}
	return true
}

// Fleet fans sync cycles out across servers with per-server failure
// isolation: one server's transport error or open circuit never blocks the
// rest. Each server also gets an exclusion lock so a slow cycle cannot
// overlap with the next tick's cycle for the same server.
type Fleet struct {
	orchestrator *Orchestrator
	newFetcher   FetcherFactory
	workers      int

	mu       sync.Mutex
	fetchers map[string]RecordFetcher
	inFlight map[string]*sync.Mutex
}

// NewFleet builds a coordinator. workers bounds how many server cycles run
// concurrently; values below 1 mean unbounded.
func NewFleet(orchestrator *Orchestrator, newFetcher FetcherFactory, workers int) *Fleet {
	return &Fleet{
		orchestrator: orchestrator,
		newFetcher:   newFetcher,
		workers:      workers,
		fetchers:     make(map[string]RecordFetcher),
		inFlight:     make(map[string]*sync.Mutex),
	}
}

// RunAll executes one cycle per server, each with its own isolated counters,
// and merges them into a single report. windowFor is evaluated per server so
// scheduled runs can start each window at that server's checkpoint.
//
// A server whose previous cycle is still running is skipped with an error
// line rather than queued; at most one cycle per server is ever in flight.
func (f *Fleet) RunAll(ctx context.Context, servers []*models.TerminalServer, windowFor func(*models.TerminalServer) Window, badgeFilter string) *FleetReport {
	outcomes := make([]ServerOutcome, len(servers))

	var sem chan struct{}
	if f.workers > 0 {
		sem = make(chan struct{}, f.workers)
	}

	var wg sync.WaitGroup
	for i, server := range servers {
		wg.Add(1)
		go func(i int, server *models.TerminalServer) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			outcomes[i] = f.runOne(ctx, server, windowFor(server), badgeFilter)
		}(i, server)
	}
	wg.Wait()

	report := &FleetReport{Details: outcomes}
	for _, o := range outcomes {
		report.TotalInserted += o.Inserted
		report.TotalSkipped += o.Skipped
	}
	return report
}

// runOne executes one guarded cycle and folds any failure into the outcome
// line instead of propagating it.
func (f *Fleet) runOne(ctx context.Context, server *models.TerminalServer, window Window, badgeFilter string) ServerOutcome {
	outcome := ServerOutcome{ServerID: server.ID}

	lock := f.serverLock(server.ID)
	if !lock.TryLock() {
		metrics.JobsRejected.Inc()
		outcome.Error = "sync already in progress"
		logging.Warn().Str("server_id", server.ID).Msg("Cycle skipped, previous cycle still running")
		return outcome
	}
	defer lock.Unlock()

	result, err := f.orchestrator.RunCycle(ctx, server, f.fetcher(server), window, badgeFilter)
	if err != nil {
		outcome.Error = err.Error()
		logging.Error().Err(err).Str("server_id", server.ID).Msg("Sync cycle failed")
		return outcome
	}

	outcome.Inserted = result.Inserted
	outcome.Skipped = result.Skipped
	return outcome
}

// fetcher returns the cached client for a server, building it on first use.
// Caching keeps one circuit breaker per server across cycles; a config
// update invalidates the entry via ForgetServer.
func (f *Fleet) fetcher(server *models.TerminalServer) RecordFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fetcher, ok := f.fetchers[server.ID]; ok {
		return fetcher
	}
	fetcher := f.newFetcher(server)
	f.fetchers[server.ID] = fetcher
	return fetcher
}

// ForgetServer drops a cached fetcher after its server config changed.
func (f *Fleet) ForgetServer(serverID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fetchers, serverID)
}

func (f *Fleet) serverLock(serverID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.inFlight[serverID]
	if !ok {
		lock = &sync.Mutex{}
		f.inFlight[serverID] = lock
	}
	return lock
}
