// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import "github.com/punchkit/punchsync/internal/models"

// Vendor default attribute names on raw punch records.
const (
	DefaultBadgeNumberField = "BadgeNumber"
	DefaultVerifyTimeField  = "VerifyTime"
	DefaultStatusField      = "Status"
	DefaultDeviceField      = "DeviceSerialNumber"
	DefaultGPSField         = "GpsLocation"
)

// FieldBindings name the five attributes read from each raw record.
type FieldBindings struct {
	BadgeNumber string
	VerifyTime  string
	Status      string
	DeviceID    string
	GPSLocation string
}

// ResolveFieldBindings picks each binding from the server override when set,
// else the vendor default. Pure; never fails.
func ResolveFieldBindings(server *models.TerminalServer) FieldBindings {
	return FieldBindings{
		BadgeNumber: orDefault(server.EmployeeDeviceID, DefaultBadgeNumberField),
		VerifyTime:  orDefault(server.TimeFieldName, DefaultVerifyTimeField),
		Status:      orDefault(server.LogTypeField, DefaultStatusField),
		DeviceID:    orDefault(server.DeviceIDField, DefaultDeviceField),
		GPSLocation: orDefault(server.GPSLocationField, DefaultGPSField),
	}
}

func orDefault(override, def string) string {
	if override != "" {
		return override
	}
	return def
}
