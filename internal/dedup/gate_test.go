// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/punchkit/punchsync/internal/models"
)

type fakeStore struct {
	exists map[string]bool
	err    error
	checks int
}

func (f *fakeStore) CheckinExists(_ context.Context, employeeID string, punchTime time.Time) (bool, error) {
	f.checks++
	if f.err != nil {
		return false, f.err
	}
	return f.exists[employeeID+":"+punchTime.UTC().Format(time.RFC3339)], nil
}

func newTestGate(t *testing.T, store ExistenceChecker) *Gate {
	t.Helper()
	gate, err := NewGate(Options{TTL: time.Hour}, store)
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	t.Cleanup(func() {
		_ = gate.Close()
	})
	return gate
}

func testEvent(employeeID string) *models.CheckinEvent {
	return &models.CheckinEvent{
		EmployeeID: employeeID,
		Time:       time.Date(2026, 8, 31, 8, 5, 0, 0, time.UTC),
		LogType:    models.LogTypeIn,
	}
}

func TestSeenConsultsStoreOnCacheMiss(t *testing.T) {
	store := &fakeStore{exists: map[string]bool{}}
	gate := newTestGate(t, store)

	seen, err := gate.Seen(context.Background(), testEvent("HR-EMP-00001"))
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Seen() = true for unknown event")
	}
	if store.checks != 1 {
		t.Errorf("store consulted %d times, want 1", store.checks)
	}
}

func TestRecordShortCircuitsStore(t *testing.T) {
	store := &fakeStore{exists: map[string]bool{}}
	gate := newTestGate(t, store)

	event := testEvent("HR-EMP-00001")
	gate.Record(event)

	seen, err := gate.Seen(context.Background(), event)
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if !seen {
		t.Error("Seen() = false after Record()")
	}
	if store.checks != 0 {
		t.Errorf("store consulted %d times, want 0 (cache hit)", store.checks)
	}
}

func TestSeenRemembersStorePositive(t *testing.T) {
	event := testEvent("HR-EMP-00001")
	store := &fakeStore{exists: map[string]bool{
		event.EmployeeID + ":" + event.Time.Format(time.RFC3339): true,
	}}
	gate := newTestGate(t, store)

	for i := 0; i < 2; i++ {
		seen, err := gate.Seen(context.Background(), event)
		if err != nil {
			t.Fatalf("Seen() #%d error = %v", i+1, err)
		}
		if !seen {
			t.Errorf("Seen() #%d = false, want true", i+1)
		}
	}
	if store.checks != 1 {
		t.Errorf("store consulted %d times, want 1 (second hit cached)", store.checks)
	}
}

func TestSeenKeysAreIndependent(t *testing.T) {
	store := &fakeStore{exists: map[string]bool{}}
	gate := newTestGate(t, store)

	gate.Record(testEvent("HR-EMP-00001"))

	seen, err := gate.Seen(context.Background(), testEvent("HR-EMP-00002"))
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Seen() = true for a different employee")
	}

	shifted := testEvent("HR-EMP-00001")
	shifted.Time = shifted.Time.Add(time.Minute)
	seen, err = gate.Seen(context.Background(), shifted)
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Seen() = true for a different punch time")
	}
}

func TestSeenPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	gate := newTestGate(t, &fakeStore{err: storeErr})

	_, err := gate.Seen(context.Background(), testEvent("HR-EMP-00001"))
	if !errors.Is(err, storeErr) {
		t.Errorf("Seen() error = %v, want wrapped store error", err)
	}
}
