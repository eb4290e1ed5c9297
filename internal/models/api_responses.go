// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package models

import "time"

// APIResponse is the standardized wrapper returned by every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries structured details on failure. Every response includes
// Metadata with the server timestamp.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, CONFIG_ERROR, IMPORT_FAILED,
// AUTHENTICATION_ERROR, METHOD_NOT_ALLOWED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ImportResult is the structured outcome of an ImportAttendance invocation
// covering one or many servers. Result is "success" even when individual
// records were skipped; it is "failed" only when the operation itself could
// not run (configuration error, or every requested server aborted).
type ImportResult struct {
	Result        string   `json:"result"` // "success" or "failed"
	TotalInserted int      `json:"total_inserted"`
	TotalSkipped  int      `json:"total_skipped"`
	Details       []string `json:"details,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// HealthStatus reports process and dependency health.
type HealthStatus struct {
	Status            string     `json:"status"` // "healthy" or "degraded"
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	SchedulerRunning  bool       `json:"scheduler_running"`
	LastSyncTime      *time.Time `json:"last_sync_time,omitempty"`
	Uptime            float64    `json:"uptime_seconds"`
}
