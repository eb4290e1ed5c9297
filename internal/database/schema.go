// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the Punchsync tables. Statements are idempotent so
// startup can run them unconditionally.
//
// The unique index on checkins(employee_id, punch_time) is the storage-level
// backstop for the one-event-per-(employee, time) invariant; the dedup gate
// normally suppresses duplicates before they reach an INSERT.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS terminal_servers (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		api_url VARCHAR NOT NULL,
		port INTEGER NOT NULL DEFAULT 0,
		api_to_call VARCHAR NOT NULL DEFAULT 'api_gettransctions',
		token VARCHAR NOT NULL DEFAULT '',
		employee_device_id VARCHAR NOT NULL DEFAULT '',
		time_field_name VARCHAR NOT NULL DEFAULT '',
		log_type_field VARCHAR NOT NULL DEFAULT '',
		device_id_field VARCHAR NOT NULL DEFAULT '',
		gps_location_field VARCHAR NOT NULL DEFAULT '',
		disabled BOOLEAN NOT NULL DEFAULT false,
		create_logs BOOLEAN NOT NULL DEFAULT false,
		last_successful_sync TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS log_type_mappings (
		server_id VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		log_type VARCHAR NOT NULL,
		expected_values VARCHAR NOT NULL,
		PRIMARY KEY (server_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL DEFAULT '',
		attendance_device_id VARCHAR NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_device_id
		ON employees(attendance_device_id)`,

	`CREATE TABLE IF NOT EXISTS checkins (
		id UUID PRIMARY KEY,
		employee_id VARCHAR NOT NULL,
		punch_time TIMESTAMP NOT NULL,
		log_type VARCHAR NOT NULL,
		device_id VARCHAR NOT NULL DEFAULT '',
		gps_location VARCHAR NOT NULL DEFAULT '',
		server_id VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (employee_id, punch_time)
	)`,

	`CREATE TABLE IF NOT EXISTS run_summaries (
		id UUID PRIMARY KEY,
		server_id VARCHAR NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		employee_filter VARCHAR NOT NULL DEFAULT '',
		inserted_count INTEGER NOT NULL DEFAULT 0,
		skipped_count INTEGER NOT NULL DEFAULT 0,
		result_status VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS run_skip_details (
		summary_id UUID NOT NULL,
		position INTEGER NOT NULL,
		badge_number VARCHAR NOT NULL DEFAULT '',
		verify_time VARCHAR NOT NULL DEFAULT '',
		status VARCHAR NOT NULL DEFAULT '',
		device_id VARCHAR NOT NULL DEFAULT '',
		gps_location VARCHAR NOT NULL DEFAULT '',
		reason VARCHAR NOT NULL,
		PRIMARY KEY (summary_id, position)
	)`,
}

// initSchema creates all tables and indexes if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
