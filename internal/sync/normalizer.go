// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/models"
)

// EmployeeResolver maps a badge number to the HR employee carrying it.
// Returns database.ErrNotFound when no employee matches.
type EmployeeResolver interface {
	GetEmployeeByDeviceID(ctx context.Context, deviceID string) (*models.Employee, error)
}

// Normalizer turns raw vendor records into canonical checkin event
// candidates, or structured skips for records that fail validation.
type Normalizer struct {
	bindings  FieldBindings
	rules     []models.LogTypeMapping
	employees EmployeeResolver
}

// NewNormalizer binds a normalizer to one server's field bindings and
// classification rules.
func NewNormalizer(server *models.TerminalServer, employees EmployeeResolver) *Normalizer {
	return &Normalizer{
		bindings:  ResolveFieldBindings(server),
		rules:     server.LogTypeMappings,
		employees: employees,
	}
}

// Normalize validates one raw record. Checks run in a fixed order and the
// first failure wins: missing fields, unparsable time, unclassifiable
// status, then unknown employee. The employee lookup only happens once the
// cheaper checks have passed. A returned skip is a per-record outcome; a
// returned error (lookup infrastructure failure) aborts the cycle.
func (n *Normalizer) Normalize(ctx context.Context, serverID string, raw models.RawPunchRecord) (*models.CheckinEvent, *models.SkipRecord, error) {
	badge := raw.GetString(n.bindings.BadgeNumber)
	rawTime := raw.GetString(n.bindings.VerifyTime)
	rawStatus := raw.GetString(n.bindings.Status)
	deviceID := raw.GetString(n.bindings.DeviceID)
	gps := raw.GetString(n.bindings.GPSLocation)

	skip := func(reason string) *models.SkipRecord {
		return &models.SkipRecord{
			BadgeNumber: badge,
			VerifyTime:  rawTime,
			Status:      rawStatus,
			DeviceID:    deviceID,
			GPSLocation: gps,
			Reason:      reason,
		}
	}

	if badge == "" || rawTime == "" {
		return nil, skip("missing badge number or verify time"), nil
	}

	punchTime, err := time.Parse(models.VendorTimeLayout, rawTime)
	if err != nil {
		return nil, skip(fmt.Sprintf("invalid verify time: %s", rawTime)), nil
	}

	logType, ok := ClassifyLogType(rawStatus, n.rules)
	if !ok {
		return nil, skip(fmt.Sprintf("unknown log type for status: %s", rawStatus)), nil
	}

	employee, err := n.employees.GetEmployeeByDeviceID(ctx, badge)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, skip(fmt.Sprintf("employee not found for device id %s", badge)), nil
		}
		return nil, nil, fmt.Errorf("failed to resolve employee: %w", err)
	}

	return &models.CheckinEvent{
		ID:          uuid.New(),
		EmployeeID:  employee.ID,
		Time:        punchTime,
		LogType:     logType,
		DeviceID:    deviceID,
		GPSLocation: gps,
		ServerID:    serverID,
	}, nil, nil
}
