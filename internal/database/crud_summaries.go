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
	"time"

	"github.com/punchkit/punchsync/internal/models"
)

// InsertRunSummary persists one cycle summary together with its skip detail
// rows. Summaries are append-only: every cycle writes exactly one, whatever
// its outcome.
func (db *DB) InsertRunSummary(ctx context.Context, summary *models.RunSummary) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_summaries (id, server_id, start_date, end_date,
			employee_filter, inserted_count, skipped_count, result_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.ServerID, summary.StartDate.UTC(), summary.EndDate.UTC(),
		summary.EmployeeFilter, summary.Inserted, summary.Skipped, summary.Status,
		summary.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	for i, skip := range summary.Skips {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_skip_details (summary_id, position, badge_number,
				verify_time, status, device_id, gps_location, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.ID, i, skip.BadgeNumber, skip.VerifyTime, skip.Status,
			skip.DeviceID, skip.GPSLocation, skip.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert run skip detail: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run summary: %w", err)
	}
	return nil
}

// GetRunSummary fetches one summary with its skip details.
func (db *DB) GetRunSummary(ctx context.Context, id string) (*models.RunSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, server_id, start_date, end_date, employee_filter,
			inserted_count, skipped_count, result_status, created_at
		 FROM run_summaries WHERE id = ?`, id)

	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT badge_number, verify_time, status, device_id, gps_location, reason
		 FROM run_skip_details WHERE summary_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run skip details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skip models.SkipRecord
		if err := rows.Scan(&skip.BadgeNumber, &skip.VerifyTime, &skip.Status,
			&skip.DeviceID, &skip.GPSLocation, &skip.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan run skip detail: %w", err)
		}
		summary.Skips = append(summary.Skips, skip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run skip details: %w", err)
	}
	return summary, nil
}

// ListRunSummaries returns recent summaries, newest first, optionally scoped
// to one server. Skip details are not loaded; fetch a single summary for
// those.
func (db *DB) ListRunSummaries(ctx context.Context, serverID string, limit int) ([]*models.RunSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, server_id, start_date, end_date, employee_filter,
		inserted_count, skipped_count, result_status, created_at
	 FROM run_summaries`
	var args []interface{}
	if serverID != "" {
		query += ` WHERE server_id = ?`
		args = append(args, serverID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run summaries: %w", err)
	}
	return summaries, nil
}

func scanSummary(row rowScanner) (*models.RunSummary, error) {
	var s models.RunSummary
	err := row.Scan(&s.ID, &s.ServerID, &s.StartDate, &s.EndDate, &s.EmployeeFilter,
		&s.Inserted, &s.Skipped, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
