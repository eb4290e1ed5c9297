// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/models"
)

// fakeFetcher returns canned records or a canned error and counts calls.
type fakeFetcher struct {
	mu       sync.Mutex
	records  []models.RawPunchRecord
	err      error
	requests []TransactionRequest
}

func (f *fakeFetcher) FetchTransactions(_ context.Context, req TransactionRequest) ([]models.RawPunchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeFetcher) Ping(context.Context) error {
	return f.err
}

// fakeEmployees resolves badges from a static map and counts lookups.
type fakeEmployees struct {
	byBadge map[string]*models.Employee
	err     error
	lookups int
}

func (f *fakeEmployees) GetEmployeeByDeviceID(_ context.Context, deviceID string) (*models.Employee, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byBadge[deviceID]; ok {
		return e, nil
	}
	return nil, database.ErrNotFound
}

// fakeCheckins accumulates inserts in memory.
type fakeCheckins struct {
	mu       sync.Mutex
	inserted []*models.CheckinEvent
	err      error
}

func (f *fakeCheckins) InsertCheckin(_ context.Context, event *models.CheckinEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, event)
	return nil
}

// fakeSummaries records persisted run summaries.
type fakeSummaries struct {
	mu        sync.Mutex
	persisted []*models.RunSummary
}

func (f *fakeSummaries) InsertRunSummary(_ context.Context, summary *models.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, summary)
	return nil
}

// fakeCheckpoints tracks the last advanced checkpoint per server.
type fakeCheckpoints struct {
	mu       sync.Mutex
	advanced map[string]time.Time
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{advanced: make(map[string]time.Time)}
}

func (f *fakeCheckpoints) AdvanceCheckpoint(_ context.Context, serverID string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanced[serverID] = t
	return nil
}

// memoryGate is a map-backed DuplicateGate.
type memoryGate struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryGate() *memoryGate {
	return &memoryGate{seen: make(map[string]bool)}
}

func (g *memoryGate) Seen(_ context.Context, event *models.CheckinEvent) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen[event.DedupKey()], nil
}

func (g *memoryGate) Record(event *models.CheckinEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[event.DedupKey()] = true
}

// testServer returns a server config with default field bindings and the
// fallback classifier.
func testServer(id string, createLogs bool) *models.TerminalServer {
	return &models.TerminalServer{
		ID:         id,
		Name:       "Test " + id,
		APIURL:     "http://terminal.local",
		Port:       8081,
		APIToCall:  "api_gettransctions",
		CreateLogs: createLogs,
	}
}

func rawRecord(badge, verifyTime, status string) models.RawPunchRecord {
	return models.RawPunchRecord{
		"BadgeNumber":        badge,
		"VerifyTime":         verifyTime,
		"Status":             status,
		"DeviceSerialNumber": "SN-1",
		"GpsLocation":        "",
	}
}
