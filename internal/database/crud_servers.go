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

const serverColumns = `id, name, api_url, port, api_to_call, token,
	employee_device_id, time_field_name, log_type_field, device_id_field,
	gps_location_field, disabled, create_logs, last_successful_sync,
	created_at, updated_at`

// CreateServer inserts a terminal server configuration with its ordered
// log-type mapping rows.
func (db *DB) CreateServer(ctx context.Context, server *models.TerminalServer) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	server.CreatedAt = now
	server.UpdatedAt = now

	exists, err := db.serverExists(ctx, server.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateServer
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `INSERT INTO terminal_servers (`+serverColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		server.ID, server.Name, server.APIURL, server.Port, server.APIToCall, server.Token,
		server.EmployeeDeviceID, server.TimeFieldName, server.LogTypeField, server.DeviceIDField,
		server.GPSLocationField, server.Disabled, server.CreateLogs, server.LastSuccessfulSync,
		server.CreatedAt, server.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert terminal server: %w", err)
	}

	if err := insertMappings(ctx, tx, server.ID, server.LogTypeMappings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit terminal server: %w", err)
	}
	return nil
}

// UpdateServer replaces a terminal server configuration and its mapping rows.
// The checkpoint column is preserved; only sync cycles advance it.
func (db *DB) UpdateServer(ctx context.Context, server *models.TerminalServer) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	server.UpdatedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `UPDATE terminal_servers SET
		name = ?, api_url = ?, port = ?, api_to_call = ?, token = ?,
		employee_device_id = ?, time_field_name = ?, log_type_field = ?,
		device_id_field = ?, gps_location_field = ?, disabled = ?,
		create_logs = ?, updated_at = ?
		WHERE id = ?`,
		server.Name, server.APIURL, server.Port, server.APIToCall, server.Token,
		server.EmployeeDeviceID, server.TimeFieldName, server.LogTypeField,
		server.DeviceIDField, server.GPSLocationField, server.Disabled,
		server.CreateLogs, server.UpdatedAt, server.ID)
	if err != nil {
		return fmt.Errorf("failed to update terminal server: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM log_type_mappings WHERE server_id = ?`, server.ID); err != nil {
		return fmt.Errorf("failed to clear log type mappings: %w", err)
	}
	if err := insertMappings(ctx, tx, server.ID, server.LogTypeMappings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit terminal server update: %w", err)
	}
	return nil
}

// GetServer fetches one terminal server with its mapping rows.
func (db *DB) GetServer(ctx context.Context, id string) (*models.TerminalServer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+serverColumns+` FROM terminal_servers WHERE id = ?`, id)

	server, err := scanServer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get terminal server: %w", err)
	}

	if err := db.loadMappings(ctx, server); err != nil {
		return nil, err
	}
	return server, nil
}

// ListServers returns all terminal servers, including disabled ones,
// ordered by id.
func (db *DB) ListServers(ctx context.Context) ([]*models.TerminalServer, error) {
	return db.listServers(ctx, `SELECT `+serverColumns+` FROM terminal_servers ORDER BY id`)
}

// ListEnabledServers returns all servers eligible for fleet iteration.
// An empty result is ErrNoEnabledServers: the caller has nothing to sync
// and should surface a configuration error.
func (db *DB) ListEnabledServers(ctx context.Context) ([]*models.TerminalServer, error) {
	servers, err := db.listServers(ctx,
		`SELECT `+serverColumns+` FROM terminal_servers WHERE NOT disabled ORDER BY id`)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, ErrNoEnabledServers
	}
	return servers, nil
}

// AdvanceCheckpoint sets last_successful_sync for a server. Called only by
// the sync orchestrator after a fully completed cycle.
func (db *DB) AdvanceCheckpoint(ctx context.Context, serverID string, t time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE terminal_servers SET last_successful_sync = ?, updated_at = ? WHERE id = ?`,
		t.UTC(), time.Now().UTC(), serverID)
	if err != nil {
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) serverExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM terminal_servers WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check server existence: %w", err)
	}
	return exists, nil
}

func (db *DB) listServers(ctx context.Context, query string) ([]*models.TerminalServer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal servers: %w", err)
	}
	defer rows.Close()

	var servers []*models.TerminalServer
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan terminal server: %w", err)
		}
		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate terminal servers: %w", err)
	}

	for _, server := range servers {
		if err := db.loadMappings(ctx, server); err != nil {
			return nil, err
		}
	}
	return servers, nil
}

func (db *DB) loadMappings(ctx context.Context, server *models.TerminalServer) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT log_type, expected_values FROM log_type_mappings
		 WHERE server_id = ? ORDER BY position`, server.ID)
	if err != nil {
		return fmt.Errorf("failed to load log type mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.LogTypeMapping
		var logType string
		if err := rows.Scan(&logType, &m.ExpectedValues); err != nil {
			return fmt.Errorf("failed to scan log type mapping: %w", err)
		}
		m.LogType = models.LogType(logType)
		server.LogTypeMappings = append(server.LogTypeMappings, m)
	}
	return rows.Err()
}

func insertMappings(ctx context.Context, tx *sql.Tx, serverID string, mappings []models.LogTypeMapping) error {
	for i, m := range mappings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO log_type_mappings (server_id, position, log_type, expected_values)
			 VALUES (?, ?, ?, ?)`,
			serverID, i, string(m.LogType), m.ExpectedValues)
		if err != nil {
			return fmt.Errorf("failed to insert log type mapping: %w", err)
		}
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanServer.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanServer(row rowScanner) (*models.TerminalServer, error) {
	var s models.TerminalServer
	var lastSync sql.NullTime
	err := row.Scan(
		&s.ID, &s.Name, &s.APIURL, &s.Port, &s.APIToCall, &s.Token,
		&s.EmployeeDeviceID, &s.TimeFieldName, &s.LogTypeField, &s.DeviceIDField,
		&s.GPSLocationField, &s.Disabled, &s.CreateLogs, &lastSync,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		s.LastSuccessfulSync = &t
	}
	return &s, nil
}
