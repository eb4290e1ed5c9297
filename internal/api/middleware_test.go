// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		configured string
		header     string
		value      string
		wantStatus int
	}{
		{
			name:       "token header accepted",
			configured: "secret",
			header:     "Token",
			value:      "secret",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "bearer accepted",
			configured: "secret",
			header:     "Authorization",
			value:      "Bearer secret",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "wrong token rejected",
			configured: "secret",
			header:     "Token",
			value:      "guess",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token rejected",
			configured: "secret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer prefix required for authorization header",
			configured: "secret",
			header:     "Authorization",
			value:      "secret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty configured token disables auth",
			configured: "",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tokenAuth(tt.configured)(next)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/servers", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
