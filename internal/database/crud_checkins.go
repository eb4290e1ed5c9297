// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/punchkit/punchsync/internal/models"
)

// CheckinExists reports whether a checkin is already persisted for the
// (employee, punch time) identity. This is the authoritative duplicate check
// behind the badger seen-key cache.
func (db *DB) CheckinExists(ctx context.Context, employeeID string, punchTime time.Time) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM checkins WHERE employee_id = ? AND punch_time = ?)`,
		employeeID, punchTime.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check checkin existence: %w", err)
	}
	return exists, nil
}

// InsertCheckin persists one checkin event. ON CONFLICT DO NOTHING makes the
// insert idempotent against the (employee_id, punch_time) unique index, so a
// concurrent duplicate is silently absorbed rather than failing the cycle.
func (db *DB) InsertCheckin(ctx context.Context, event *models.CheckinEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO checkins (id, employee_id, punch_time, log_type, device_id,
			gps_location, server_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (employee_id, punch_time) DO NOTHING`,
		event.ID, event.EmployeeID, event.Time.UTC(), string(event.LogType),
		event.DeviceID, event.GPSLocation, event.ServerID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert checkin: %w", err)
	}
	return nil
}

// CheckinFilter narrows ListCheckins. Zero values mean "no constraint".
type CheckinFilter struct {
	EmployeeID string
	ServerID   string
	From       time.Time
	To         time.Time
	Limit      int
}

// ListCheckins returns checkins matching the filter, newest first.
func (db *DB) ListCheckins(ctx context.Context, filter CheckinFilter) ([]*models.CheckinEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, employee_id, punch_time, log_type, device_id,
		gps_location, server_id, created_at FROM checkins WHERE 1=1`
	var args []interface{}

	if filter.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, filter.EmployeeID)
	}
	if filter.ServerID != "" {
		query += ` AND server_id = ?`
		args = append(args, filter.ServerID)
	}
	if !filter.From.IsZero() {
		query += ` AND punch_time >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND punch_time < ?`
		args = append(args, filter.To.UTC())
	}

	query += ` ORDER BY punch_time DESC`

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer rows.Close()

	var events []*models.CheckinEvent
	for rows.Next() {
		var e models.CheckinEvent
		var logType string
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Time, &logType, &e.DeviceID,
			&e.GPSLocation, &e.ServerID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		e.LogType = models.LogType(logType)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkins: %w", err)
	}
	return events, nil
}
