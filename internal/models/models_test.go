// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package models

import (
	"reflect"
	"testing"
	"time"
)

func TestRawPunchRecordGetString(t *testing.T) {
	record := RawPunchRecord{
		"BadgeNumber": float64(1001),
		"VerifyTime":  "2026-08-31 08:05:00",
		"Fractional":  12.5,
		"NullField":   nil,
		"WrongType":   []interface{}{"x"},
	}

	tests := []struct {
		key  string
		want string
	}{
		{"BadgeNumber", "1001"},
		{"VerifyTime", "2026-08-31 08:05:00"},
		{"Fractional", "12.5"},
		{"NullField", ""},
		{"WrongType", ""},
		{"Missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := record.GetString(tt.key); got != tt.want {
				t.Errorf("GetString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLogTypeMappingValues(t *testing.T) {
	tests := []struct {
		name    string
		mapping LogTypeMapping
		want    []string
	}{
		{
			name:    "trimmed and lowercased",
			mapping: LogTypeMapping{LogType: LogTypeIn, ExpectedValues: " In , CHECK-IN ,punch-in"},
			want:    []string{"in", "check-in", "punch-in"},
		},
		{
			name:    "empties dropped",
			mapping: LogTypeMapping{LogType: LogTypeOut, ExpectedValues: "out,, ,"},
			want:    []string{"out"},
		},
		{
			name:    "empty string yields nothing",
			mapping: LogTypeMapping{LogType: LogTypeOut, ExpectedValues: ""},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mapping.Values(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckinEventDedupKey(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	event := &CheckinEvent{
		EmployeeID: "HR-EMP-00001",
		Time:       time.Date(2026, 8, 31, 13, 35, 0, 0, loc),
	}
	// The key is timezone-independent.
	want := "HR-EMP-00001:2026-08-31T08:05:00Z"
	if got := event.DedupKey(); got != want {
		t.Errorf("DedupKey() = %q, want %q", got, want)
	}

	utc := &CheckinEvent{
		EmployeeID: "HR-EMP-00001",
		Time:       time.Date(2026, 8, 31, 8, 5, 0, 0, time.UTC),
	}
	if utc.DedupKey() != event.DedupKey() {
		t.Error("same instant in different zones produced different keys")
	}
}

func TestRunSummaryFinalize(t *testing.T) {
	summary := &RunSummary{}
	summary.Inserted = 2
	summary.Finalize()
	if summary.Status != RunStatusSuccess {
		t.Errorf("status = %q, want Success with no skips", summary.Status)
	}

	summary.AddSkip(SkipRecord{BadgeNumber: "1001", Reason: "duplicate check-in record"})
	summary.Finalize()
	if summary.Status != RunStatusPartial {
		t.Errorf("status = %q, want Partial after a skip", summary.Status)
	}
	if summary.Skipped != 1 || len(summary.Skips) != 1 {
		t.Errorf("skip counters = %d/%d, want 1/1", summary.Skipped, len(summary.Skips))
	}
}
