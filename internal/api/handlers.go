// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/jobs"
	"github.com/punchkit/punchsync/internal/models"
	syncer "github.com/punchkit/punchsync/internal/sync"
	"github.com/punchkit/punchsync/internal/validation"
)

// Store is the slice of database operations the handlers use. Implemented
// by *database.DB; handler tests substitute fakes.
type Store interface {
	Ping(ctx context.Context) error
	ListServers(ctx context.Context) ([]*models.TerminalServer, error)
	GetServer(ctx context.Context, id string) (*models.TerminalServer, error)
	CreateServer(ctx context.Context, server *models.TerminalServer) error
	UpdateServer(ctx context.Context, server *models.TerminalServer) error
	ListCheckins(ctx context.Context, filter database.CheckinFilter) ([]*models.CheckinEvent, error)
	ListRunSummaries(ctx context.Context, serverID string, limit int) ([]*models.RunSummary, error)
	GetRunSummary(ctx context.Context, id string) (*models.RunSummary, error)
}

// Importer runs synchronous imports. Implemented by *sync.Manager.
type Importer interface {
	ImportAttendance(ctx context.Context, req syncer.ImportRequest) (*syncer.FleetReport, error)
}

// Trigger dispatches background imports. Implemented by *jobs.Bus.
type Trigger interface {
	DispatchImport(job jobs.ImportJob) error
}

// Handler holds the HTTP handler dependencies.
type Handler struct {
	db        Store
	importer  Importer
	trigger   Trigger
	fleet     *syncer.Fleet
	version   string
	startTime time.Time
}

// NewHandler builds the handler set. fleet may be nil in tests; it is only
// used to invalidate cached vendor clients after config updates.
func NewHandler(db Store, importer Importer, trigger Trigger, fleet *syncer.Fleet, version string) *Handler {
	return &Handler{
		db:        db,
		importer:  importer,
		trigger:   trigger,
		fleet:     fleet,
		version:   version,
		startTime: time.Now(),
	}
}

// importRequest is the body of POST /api/v1/import and /import/trigger.
// Dates use the same "2006-01-02 15:04:05" layout as the vendor APIs.
type importRequest struct {
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02 15:04:05"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02 15:04:05"`
	ServerID   string `json:"server_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
}

func (req *importRequest) window() (time.Time, time.Time) {
	start, _ := time.Parse(models.VendorTimeLayout, req.StartDate)
	end, _ := time.Parse(models.VendorTimeLayout, req.EndDate)
	return start.UTC(), end.UTC()
}

// ImportAttendance runs a synchronous import and returns the aggregate
// result. A per-server failure shows up in the details; the operation fails
// only when nothing could run at all.
func (h *Handler) ImportAttendance(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, verr.Error())
		return
	}

	start, end := req.window()
	report, err := h.importer.ImportAttendance(r.Context(), syncer.ImportRequest{
		Start:      start,
		End:        end,
		ServerID:   req.ServerID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		status, code := importErrorStatus(err)
		respondError(w, status, code, err.Error())
		return
	}

	result := buildImportResult(report)
	respondJSON(w, http.StatusOK, result, started)
}

// TriggerImport queues the import on the job bus and returns immediately.
// Outcomes are visible in run summaries and metrics.
func (h *Handler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, verr.Error())
		return
	}

	start, end := req.window()
	if !end.After(start) {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "end_date must be after start_date")
		return
	}

	err := h.trigger.DispatchImport(jobs.ImportJob{
		Start:      start,
		End:        end,
		ServerID:   req.ServerID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"}, started)
}

func buildImportResult(report *syncer.FleetReport) models.ImportResult {
	result := models.ImportResult{
		Result:        "success",
		TotalInserted: report.TotalInserted,
		TotalSkipped:  report.TotalSkipped,
	}
	for _, d := range report.Details {
		line := fmt.Sprintf("server %s: inserted %d, skipped %d", d.ServerID, d.Inserted, d.Skipped)
		if d.Error != "" {
			line = fmt.Sprintf("server %s: failed: %s", d.ServerID, d.Error)
		}
		result.Details = append(result.Details, line)
	}
	if report.Failed() {
		result.Result = "failed"
		result.Message = "all requested servers failed"
	}
	return result
}

func importErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrNoEnabledServers):
		return http.StatusConflict, ErrCodeConfig
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	default:
		return http.StatusBadRequest, ErrCodeImportFailed
	}
}
