// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/punchkit/punchsync/internal/models"
)

type cycleFixture struct {
	employees   *fakeEmployees
	checkins    *fakeCheckins
	summaries   *fakeSummaries
	checkpoints *fakeCheckpoints
	gate        *memoryGate
	orch        *Orchestrator
}

func newCycleFixture() *cycleFixture {
	f := &cycleFixture{
		employees: &fakeEmployees{byBadge: map[string]*models.Employee{
			"1001": {ID: "HR-EMP-00001", AttendanceDeviceID: "1001"},
			"1002": {ID: "HR-EMP-00002", AttendanceDeviceID: "1002"},
		}},
		checkins:    &fakeCheckins{},
		summaries:   &fakeSummaries{},
		checkpoints: newFakeCheckpoints(),
		gate:        newMemoryGate(),
	}
	f.orch = NewOrchestrator(f.employees, f.checkins, f.summaries, f.checkpoints, f.gate)
	return f
}

func testWindow() Window {
	return Window{
		Start: time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}
}

func TestRunCycleSuccess(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{records: []models.RawPunchRecord{
		rawRecord("1001", "2026-08-31 08:05:00", "Check-In"),
		rawRecord("1002", "2026-08-31 08:07:00", "Check-In"),
	}}

	server := testServer("srv-1", true)
	result, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Inserted != 2 || result.Skipped != 0 {
		t.Errorf("result = %d inserted / %d skipped, want 2/0", result.Inserted, result.Skipped)
	}
	if result.Summary == nil || result.Summary.Status != models.RunStatusSuccess {
		t.Errorf("summary = %+v, want Success status", result.Summary)
	}
	if len(f.summaries.persisted) != 1 {
		t.Errorf("persisted %d summaries, want 1", len(f.summaries.persisted))
	}
	if got := f.checkpoints.advanced["srv-1"]; !got.Equal(testWindow().End) {
		t.Errorf("checkpoint = %v, want window end %v", got, testWindow().End)
	}
}

func TestRunCycleIdempotence(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{records: []models.RawPunchRecord{
		rawRecord("1001", "2026-08-31 08:05:00", "Check-In"),
		rawRecord("1002", "2026-08-31 08:07:00", "Check-In"),
	}}
	server := testServer("srv-1", true)

	first, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("first RunCycle() error = %v", err)
	}
	if first.Inserted != 2 {
		t.Fatalf("first run inserted %d, want 2", first.Inserted)
	}

	second, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("second RunCycle() error = %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 2 {
		t.Errorf("second run = %d inserted / %d skipped, want 0/2", second.Inserted, second.Skipped)
	}
	for _, skip := range second.Summary.Skips {
		if skip.Reason != "duplicate check-in record" {
			t.Errorf("skip reason = %q, want duplicate check-in record", skip.Reason)
		}
	}
	if len(f.checkins.inserted) != 2 {
		t.Errorf("store holds %d events after rerun, want 2", len(f.checkins.inserted))
	}
}

func TestRunCyclePartialStatus(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{records: []models.RawPunchRecord{
		rawRecord("1001", "2026-08-31 08:05:00", "Check-In"),
		rawRecord("9999", "2026-08-31 08:06:00", "Check-In"), // unknown employee
		rawRecord("1002", "", "Check-In"),                    // missing verify time
	}}
	server := testServer("srv-1", true)

	result, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 2 {
		t.Errorf("result = %d/%d, want 1 inserted, 2 skipped", result.Inserted, result.Skipped)
	}
	if result.Summary.Status != models.RunStatusPartial {
		t.Errorf("status = %q, want Partial", result.Summary.Status)
	}
	if len(result.Summary.Skips) != 2 {
		t.Errorf("summary carries %d skips, want 2", len(result.Summary.Skips))
	}
	// Skips are per-record outcomes; the checkpoint still advances.
	if got := f.checkpoints.advanced["srv-1"]; !got.Equal(testWindow().End) {
		t.Errorf("checkpoint = %v, want window end", got)
	}
}

func TestRunCycleEmptyResultIsSuccess(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{}
	server := testServer("srv-1", true)

	result, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Inserted != 0 || result.Skipped != 0 {
		t.Errorf("result = %d/%d, want 0/0", result.Inserted, result.Skipped)
	}
	if result.Summary.Status != models.RunStatusSuccess {
		t.Errorf("status = %q, want Success", result.Summary.Status)
	}
	if got := f.checkpoints.advanced["srv-1"]; !got.Equal(testWindow().End) {
		t.Errorf("checkpoint = %v, want window end", got)
	}
}

func TestRunCycleFetchFailureLeavesCheckpoint(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	server := testServer("srv-1", true)

	_, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err == nil {
		t.Fatal("RunCycle() error = nil, want fetch failure")
	}
	if _, moved := f.checkpoints.advanced["srv-1"]; moved {
		t.Error("checkpoint advanced after fetch failure")
	}
	// A Failed summary is still persisted for operator visibility.
	if len(f.summaries.persisted) != 1 || f.summaries.persisted[0].Status != models.RunStatusFailed {
		t.Errorf("persisted summaries = %+v, want one Failed entry", f.summaries.persisted)
	}
}

func TestRunCycleWithoutCreateLogs(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{records: []models.RawPunchRecord{
		rawRecord("1001", "2026-08-31 08:05:00", "Check-In"),
	}}
	server := testServer("srv-1", false)

	result, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if result.Summary != nil {
		t.Error("result carries a summary with create_logs disabled")
	}
	if len(f.summaries.persisted) != 0 {
		t.Errorf("persisted %d summaries, want 0", len(f.summaries.persisted))
	}
	if result.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", result.Inserted)
	}
}

func TestRunCyclePassesBadgeFilter(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{}
	server := testServer("srv-1", false)

	_, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), "1001")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("fetcher called %d times, want 1", len(fetcher.requests))
	}
	if fetcher.requests[0].BadgeNumber != "1001" {
		t.Errorf("BadgeNumber filter = %q, want 1001", fetcher.requests[0].BadgeNumber)
	}
}

func TestRunCycleProcessesInVendorOrder(t *testing.T) {
	f := newCycleFixture()
	fetcher := &fakeFetcher{records: []models.RawPunchRecord{
		rawRecord("1002", "2026-08-31 08:30:00", "Check-In"),
		rawRecord("1001", "2026-08-31 08:05:00", "Check-In"),
	}}
	server := testServer("srv-1", false)

	if _, err := f.orch.RunCycle(context.Background(), server, fetcher, testWindow(), ""); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(f.checkins.inserted) != 2 {
		t.Fatalf("inserted %d events, want 2", len(f.checkins.inserted))
	}
	if f.checkins.inserted[0].EmployeeID != "HR-EMP-00002" {
		t.Errorf("first insert = %s, want vendor order preserved", f.checkins.inserted[0].EmployeeID)
	}
}
