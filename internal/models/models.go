// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package models defines the data structures shared across Punchsync:
// terminal server configurations, raw vendor punch records, canonical
// checkin events, run summaries, and API response wrappers.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogType is the canonical direction of an attendance punch.
type LogType string

const (
	LogTypeIn  LogType = "IN"
	LogTypeOut LogType = "OUT"
)

// VendorTimeLayout is the timestamp layout used by BioTime-style vendor APIs
// for both request payloads and the VerifyTime field of returned records.
const VendorTimeLayout = "2006-01-02 15:04:05"

// TerminalServer is the persisted configuration for one biometric-terminal
// vendor API integration.
//
// The field-override columns (EmployeeDeviceID, TimeFieldName, ...) let an
// operator rename the attributes Punchsync reads from each raw record; empty
// values fall back to the vendor defaults resolved by sync.ResolveFieldBindings.
//
// LastSuccessfulSync is the server's sync checkpoint. It is advanced only by
// a fully completed sync cycle, never by the API layer, and is the start of
// the next scheduled fetch window.
type TerminalServer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIURL string `json:"api_url"`
	Port   int    `json:"port"`
	// APIToCall is the path segment appended to the base URL, e.g.
	// "api_gettransctions" (sic - the vendor spells it that way).
	APIToCall string `json:"api_to_call"`
	Token     string `json:"token"`

	// Field mapping overrides. Empty string means "use the vendor default".
	EmployeeDeviceID string `json:"employee_device_id,omitempty"`
	TimeFieldName    string `json:"time_field_name,omitempty"`
	LogTypeField     string `json:"log_type,omitempty"`
	DeviceIDField    string `json:"device_id,omitempty"`
	GPSLocationField string `json:"gps_location,omitempty"`

	// LogTypeMappings are ordered classification rules. Empty means "use the
	// built-in keyword heuristic". Order matters: first match wins.
	LogTypeMappings []LogTypeMapping `json:"log_type_mapping,omitempty"`

	Disabled   bool `json:"disabled"`
	CreateLogs bool `json:"create_logs"`

	LastSuccessfulSync *time.Time `json:"last_successful_sync,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogTypeMapping is one operator-supplied classification rule: a raw status
// string containing any of the expected values (case-insensitive substring
// match) classifies as LogType.
type LogTypeMapping struct {
	LogType        LogType `json:"log_type"`
	ExpectedValues string  `json:"expected_values"` // comma-separated
}

// Values splits ExpectedValues into trimmed, lowercased substrings,
// dropping empties.
func (m LogTypeMapping) Values() []string {
	parts := strings.Split(m.ExpectedValues, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RawPunchRecord is one untyped record as returned by a vendor API. Keys are
// vendor-defined attribute names and vary per server; the sync field bindings
// decide which keys to read.
type RawPunchRecord map[string]interface{}

// GetString reads a field as a string, tolerating missing keys and non-string
// values the way the vendor APIs require (numeric badge numbers are common).
func (r RawPunchRecord) GetString(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; badge numbers are integral.
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// Employee is the downstream HR entity a checkin attaches to. Punchsync only
// ever reads employees; it never creates or mutates them.
type Employee struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	AttendanceDeviceID string `json:"attendance_device_id"`
}

// CheckinEvent is the canonical, deduplicated attendance punch.
//
// Invariant: at most one persisted CheckinEvent may exist for a given
// (EmployeeID, Time) pair. The dedup gate enforces this before insert and the
// checkins table carries a matching unique index.
type CheckinEvent struct {
	ID          uuid.UUID `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	Time        time.Time `json:"time"`
	LogType     LogType   `json:"log_type"`
	DeviceID    string    `json:"device_id,omitempty"`
	GPSLocation string    `json:"gps_location,omitempty"`
	ServerID    string    `json:"server_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// DedupKey is the canonical identity of a checkin for deduplication.
func (e *CheckinEvent) DedupKey() string {
	return e.EmployeeID + ":" + e.Time.UTC().Format(time.RFC3339)
}

// SkipRecord pairs a rejected raw record with a human-readable reason. Skips
// are routine data, not errors: the cycle keeps going after each one.
type SkipRecord struct {
	BadgeNumber string `json:"badge_number,omitempty"`
	VerifyTime  string `json:"verify_time,omitempty"`
	Status      string `json:"status,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	GPSLocation string `json:"gps_location,omitempty"`
	Reason      string `json:"reason"`
}

// Run summary statuses.
const (
	RunStatusSuccess = "Success" // no skips
	RunStatusPartial = "Partial" // some records skipped
	RunStatusFailed  = "Failed"  // cycle aborted before completion
)

// RunSummary records the outcome of one sync cycle for one server.
type RunSummary struct {
	ID             uuid.UUID    `json:"id"`
	ServerID       string       `json:"server_id"`
	StartDate      time.Time    `json:"start_date"`
	EndDate        time.Time    `json:"end_date"`
	EmployeeFilter string       `json:"employee_filter,omitempty"`
	Inserted       int          `json:"inserted_count"`
	Skipped        int          `json:"skipped_count"`
	Status         string       `json:"result_status"`
	Skips          []SkipRecord `json:"log_details,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AddSkip appends a skip detail and bumps the skipped counter.
func (s *RunSummary) AddSkip(skip SkipRecord) {
	s.Skipped++
	s.Skips = append(s.Skips, skip)
}

// Finalize sets the result status from the accumulated counters.
func (s *RunSummary) Finalize() {
	if s.Skipped == 0 {
		s.Status = RunStatusSuccess
	} else {
		s.Status = RunStatusPartial
	}
}
