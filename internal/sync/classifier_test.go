// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"testing"

	"github.com/punchkit/punchsync/internal/models"
)

func TestClassifyLogType(t *testing.T) {
	customRules := []models.LogTypeMapping{
		{LogType: models.LogTypeOut, ExpectedValues: "exit, leaving"},
		{LogType: models.LogTypeIn, ExpectedValues: "entry, arriving"},
	}

	tests := []struct {
		name     string
		status   string
		rules    []models.LogTypeMapping
		want     models.LogType
		wantOK   bool
	}{
		{
			name:   "fallback check-in keyword",
			status: "Check-In",
			wantOK: true,
			want:   models.LogTypeIn,
		},
		{
			name:   "fallback punch-out keyword",
			status: "punch-out",
			wantOK: true,
			want:   models.LogTypeOut,
		},
		{
			name:   "fallback is case-insensitive and trimmed",
			status: "  CHECK OUT  ",
			wantOK: true,
			want:   models.LogTypeOut,
		},
		{
			name:   "substring match inside a longer status",
			status: "door-1 check in ok",
			wantOK: true,
			want:   models.LogTypeIn,
		},
		{
			name:   "unclassifiable status",
			status: "break",
			wantOK: false,
		},
		{
			name:   "empty status",
			status: "",
			wantOK: false,
		},
		{
			name:   "custom rule first match wins over order of meaning",
			status: "exit then arriving",
			rules:  customRules,
			wantOK: true,
			want:   models.LogTypeOut,
		},
		{
			name:   "custom rule second entry",
			status: "arriving",
			rules:  customRules,
			wantOK: true,
			want:   models.LogTypeIn,
		},
		{
			name:   "custom rules miss, fallback still applies",
			status: "check-in",
			rules:  customRules,
			wantOK: true,
			want:   models.LogTypeIn,
		},
		{
			name:   "ambiguous status resolved by IN-before-OUT fallback order",
			status: "check-in before check-out",
			wantOK: true,
			want:   models.LogTypeIn,
		},
		{
			name: "rule values are trimmed and lowercased",
			status: "EXIT",
			rules: []models.LogTypeMapping{
				{LogType: models.LogTypeOut, ExpectedValues: "  ExIt  "},
			},
			wantOK: true,
			want:   models.LogTypeOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyLogType(tt.status, tt.rules)
			if ok != tt.wantOK {
				t.Fatalf("ClassifyLogType(%q) ok = %v, want %v", tt.status, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ClassifyLogType(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}
