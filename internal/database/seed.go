// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package database

import (
	"context"
	"errors"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/models"
)

// SeedDevData loads a sample terminal server, default log-type mappings, and
// a small employee roster for local development. Enabled via
// database.seed: true; a production deployment never sets it.
func (db *DB) SeedDevData(ctx context.Context) error {
	server := &models.TerminalServer{
		ID:        "dev-biotime",
		Name:      "Dev BioTime Server",
		APIURL:    "http://127.0.0.1",
		Port:      8081,
		APIToCall: "api_gettransctions",
		Token:     "dev-token",
		LogTypeMappings: []models.LogTypeMapping{
			{LogType: models.LogTypeIn, ExpectedValues: "in, check-in, check in, punch-in"},
			{LogType: models.LogTypeOut, ExpectedValues: "out, check-out, check out, punch-out"},
		},
		CreateLogs: true,
	}

	if err := db.CreateServer(ctx, server); err != nil {
		if !errors.Is(err, ErrDuplicateServer) {
			return err
		}
		logging.Debug().Str("server_id", server.ID).Msg("Seed server already present")
	} else {
		logging.Info().Str("server_id", server.ID).Msg("Seeded dev terminal server")
	}

	employees := []models.Employee{
		{ID: "HR-EMP-00001", Name: "Asha Nair", AttendanceDeviceID: "1001"},
		{ID: "HR-EMP-00002", Name: "Daniel Okafor", AttendanceDeviceID: "1002"},
		{ID: "HR-EMP-00003", Name: "Mei-Ling Chen", AttendanceDeviceID: "1003"},
	}
	for i := range employees {
		if err := db.UpsertEmployee(ctx, &employees[i]); err != nil {
			return err
		}
	}
	logging.Info().Int("employees", len(employees)).Msg("Seeded dev employees")
	return nil
}
