// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package jobs

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/punchkit/punchsync/internal/logging"
)

// zerologAdapter routes Watermill's internal logging through the global
// zerolog logger. Watermill's Info chatter lands at debug; Error stays
// error.
type zerologAdapter struct {
	fields watermill.LogFields
}

// newWatermillLogger returns a watermill.LoggerAdapter backed by zerolog.
func newWatermillLogger() watermill.LoggerAdapter {
	return &zerologAdapter{}
}

func (a *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	ev := logging.Error().Err(err)
	addFields(ev, a.fields, fields)
	ev.Msg("watermill: " + msg)
}

func (a *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	ev := logging.Debug()
	addFields(ev, a.fields, fields)
	ev.Msg("watermill: " + msg)
}

func (a *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	ev := logging.Debug()
	addFields(ev, a.fields, fields)
	ev.Msg("watermill: " + msg)
}

func (a *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	ev := logging.Trace()
	addFields(ev, a.fields, fields)
	ev.Msg("watermill: " + msg)
}

func (a *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{fields: a.fields.Add(fields)}
}

func addFields(ev *zerolog.Event, sets ...watermill.LogFields) {
	for _, fields := range sets {
		for k, v := range fields {
			ev.Interface(k, v)
		}
	}
}
