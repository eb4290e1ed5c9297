// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/punchkit/punchsync/internal/models"
)

// GetEmployeeByDeviceID resolves an employee by the badge number their
// biometric terminal reports. Returns ErrNotFound when no employee carries
// the device ID; the normalizer turns that into a per-record skip.
func (db *DB) GetEmployeeByDeviceID(ctx context.Context, deviceID string) (*models.Employee, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var e models.Employee
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, attendance_device_id FROM employees WHERE attendance_device_id = ?`,
		deviceID).Scan(&e.ID, &e.Name, &e.AttendanceDeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee by device id: %w", err)
	}
	return &e, nil
}

// GetEmployeeDeviceID resolves an employee record ID to the badge number sent
// as the vendor BadgeNumber filter for employee-scoped imports.
func (db *DB) GetEmployeeDeviceID(ctx context.Context, employeeID string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var deviceID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT attendance_device_id FROM employees WHERE id = ?`, employeeID).Scan(&deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get employee device id: %w", err)
	}
	return deviceID, nil
}

// UpsertEmployee inserts or replaces an employee row. Used by seeding and by
// deployments that mirror the HR roster into Punchsync.
func (db *DB) UpsertEmployee(ctx context.Context, e *models.Employee) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO employees (id, name, attendance_device_id) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name,
		 attendance_device_id = excluded.attendance_device_id`,
		e.ID, e.Name, e.AttendanceDeviceID)
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}
