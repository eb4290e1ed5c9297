// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package database

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoEnabledServers indicates no enabled terminal server configuration
	// exists. This is a configuration error, not a sync failure.
	ErrNoEnabledServers = errors.New("no enabled terminal server found")

	// ErrDuplicateServer indicates a terminal server with the same id
	// already exists.
	ErrDuplicateServer = errors.New("terminal server already exists")
)
