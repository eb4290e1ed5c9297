// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/models"
	syncer "github.com/punchkit/punchsync/internal/sync"
	"github.com/punchkit/punchsync/internal/validation"
)

// serverRequest is the body for creating or updating a terminal server.
type serverRequest struct {
	ID        string `json:"id" validate:"required,min=1,max=120"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	APIURL    string `json:"api_url" validate:"required,url"`
	Port      int    `json:"port" validate:"gte=0,lte=65535"`
	APIToCall string `json:"api_to_call,omitempty"`
	Token     string `json:"token,omitempty"`

	EmployeeDeviceID string `json:"employee_device_id,omitempty"`
	TimeFieldName    string `json:"time_field_name,omitempty"`
	LogTypeField     string `json:"log_type,omitempty"`
	DeviceIDField    string `json:"device_id,omitempty"`
	GPSLocationField string `json:"gps_location,omitempty"`

	LogTypeMappings []models.LogTypeMapping `json:"log_type_mapping,omitempty"`

	Disabled   bool `json:"disabled"`
	CreateLogs bool `json:"create_logs"`
}

func (req *serverRequest) toModel() *models.TerminalServer {
	apiToCall := req.APIToCall
	if apiToCall == "" {
		apiToCall = "api_gettransctions"
	}
	return &models.TerminalServer{
		ID:               req.ID,
		Name:             req.Name,
		APIURL:           req.APIURL,
		Port:             req.Port,
		APIToCall:        apiToCall,
		Token:            req.Token,
		EmployeeDeviceID: req.EmployeeDeviceID,
		TimeFieldName:    req.TimeFieldName,
		LogTypeField:     req.LogTypeField,
		DeviceIDField:    req.DeviceIDField,
		GPSLocationField: req.GPSLocationField,
		LogTypeMappings:  req.LogTypeMappings,
		Disabled:         req.Disabled,
		CreateLogs:       req.CreateLogs,
	}
}

func validateMappings(mappings []models.LogTypeMapping) string {
	for _, m := range mappings {
		if m.LogType != models.LogTypeIn && m.LogType != models.LogTypeOut {
			return "log_type_mapping entries must map to IN or OUT"
		}
		if len(m.Values()) == 0 {
			return "log_type_mapping entries need at least one expected value"
		}
	}
	return ""
}

// ListServers returns all configured terminal servers. Tokens are redacted.
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	servers, err := h.db.ListServers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	for _, s := range servers {
		redactToken(s)
	}
	respondJSON(w, http.StatusOK, servers, started)
}

// GetServer returns one terminal server.
func (h *Handler) GetServer(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	server, err := h.db.GetServer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "terminal server not found")
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	redactToken(server)
	respondJSON(w, http.StatusOK, server, started)
}

// CreateServer registers a new terminal server.
func (h *Handler) CreateServer(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req serverRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, verr.Error())
		return
	}
	if msg := validateMappings(req.LogTypeMappings); msg != "" {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	server := req.toModel()
	if err := h.db.CreateServer(r.Context(), server); err != nil {
		if errors.Is(err, database.ErrDuplicateServer) {
			respondError(w, http.StatusConflict, ErrCodeConflict, "terminal server already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	redactToken(server)
	respondJSON(w, http.StatusCreated, server, started)
}

// UpdateServer replaces a terminal server configuration. The checkpoint is
// preserved; the cached vendor client is dropped so the next cycle sees the
// new settings.
func (h *Handler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id := chi.URLParam(r, "id")

	var req serverRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.ID = id
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, verr.Error())
		return
	}
	if msg := validateMappings(req.LogTypeMappings); msg != "" {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	server := req.toModel()
	if err := h.db.UpdateServer(r.Context(), server); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "terminal server not found")
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	if h.fleet != nil {
		h.fleet.ForgetServer(id)
	}

	redactToken(server)
	respondJSON(w, http.StatusOK, server, started)
}

// TestConnection pings the server's vendor API with a short timeout.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	server, err := h.db.GetServer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "terminal server not found")
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	client := syncer.NewTerminalClient(server)
	if err := client.Ping(ctx); err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"reachable": false,
			"error":     err.Error(),
		}, started)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reachable": true}, started)
}

func redactToken(server *models.TerminalServer) {
	if server.Token != "" {
		server.Token = "[redacted]"
	}
}
