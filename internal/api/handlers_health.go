// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"net/http"
	"time"

	"github.com/punchkit/punchsync/internal/models"
)

// Health reports overall process health including database connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := models.HealthStatus{
		Status:            "healthy",
		Version:           h.version,
		DatabaseConnected: true,
		SchedulerRunning:  true,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.DatabaseConnected = false
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status, started)
}

// HealthLive is the liveness probe: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady is the readiness probe: the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeInternalError, "database not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}, started)
}
