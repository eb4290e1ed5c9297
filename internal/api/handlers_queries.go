// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/models"
)

// ListCheckins returns persisted checkin events, newest first. Query
// parameters: employee_id, server_id, from, to (vendor date layout), limit.
func (h *Handler) ListCheckins(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q := r.URL.Query()

	filter := database.CheckinFilter{
		EmployeeID: q.Get("employee_id"),
		ServerID:   q.Get("server_id"),
	}

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(models.VendorTimeLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "from must match 2006-01-02 15:04:05")
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(models.VendorTimeLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "to must match 2006-01-02 15:04:05")
			return
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	checkins, err := h.db.ListCheckins(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if checkins == nil {
		checkins = []*models.CheckinEvent{}
	}
	respondJSON(w, http.StatusOK, checkins, started)
}

// ListSummaries returns recent run summaries, optionally scoped to one
// server via the server_id query parameter.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summaries, err := h.db.ListRunSummaries(r.Context(), q.Get("server_id"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []*models.RunSummary{}
	}
	respondJSON(w, http.StatusOK, summaries, started)
}

// GetSummary returns one run summary with its skip details.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	summary, err := h.db.GetRunSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "run summary not found")
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary, started)
}
