// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/punchkit/punchsync/internal/models"
)

func TestBuildEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		server *models.TerminalServer
		want   string
	}{
		{
			name: "port appended",
			server: &models.TerminalServer{
				APIURL:    "http://10.0.0.5",
				Port:      8081,
				APIToCall: "api_gettransctions",
			},
			want: "http://10.0.0.5:8081/api_gettransctions/",
		},
		{
			name: "port already in url",
			server: &models.TerminalServer{
				APIURL:    "http://10.0.0.5:8081",
				Port:      8081,
				APIToCall: "api_gettransctions",
			},
			want: "http://10.0.0.5:8081/api_gettransctions/",
		},
		{
			name: "zero port omitted",
			server: &models.TerminalServer{
				APIURL:    "https://biotime.example.com",
				APIToCall: "api_gettransctions",
			},
			want: "https://biotime.example.com/api_gettransctions/",
		},
		{
			name: "trailing slash trimmed",
			server: &models.TerminalServer{
				APIURL:    "http://10.0.0.5/",
				Port:      8081,
				APIToCall: "/api_gettransctions/",
			},
			want: "http://10.0.0.5:8081/api_gettransctions/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildEndpoint(tt.server); got != tt.want {
				t.Errorf("buildEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

// newClientForTest points a TerminalClient at a local test server with
// retries fast enough for unit tests.
func newClientForTest(ts *httptest.Server, token string) *TerminalClient {
	client := NewTerminalClient(&models.TerminalServer{
		ID:        "srv-test",
		APIURL:    ts.URL,
		APIToCall: "api_gettransctions",
		Token:     token,
	})
	client.retryBaseDelay = time.Millisecond
	return client
}

func TestFetchTransactions(t *testing.T) {
	var gotReq *http.Request
	var gotBody transactionPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":[
			{"BadgeNumber":"1001","VerifyTime":"2026-08-31 08:05:00","Status":"Check-In"},
			{"BadgeNumber":"1002","VerifyTime":"2026-08-31 08:07:00","Status":"Check-Out"}
		]}`))
	}))
	defer ts.Close()

	client := newClientForTest(ts, "secret-token")
	records, err := client.FetchTransactions(context.Background(), TransactionRequest{
		Start:       time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
		BadgeNumber: "1001",
	})
	if err != nil {
		t.Fatalf("FetchTransactions() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[0].GetString("BadgeNumber"); got != "1001" {
		t.Errorf("first record badge = %q, want 1001", got)
	}

	if gotReq.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", gotReq.Method)
	}
	if gotReq.URL.Path != "/api_gettransctions/" {
		t.Errorf("path = %q, want /api_gettransctions/", gotReq.URL.Path)
	}
	if got := gotReq.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := gotReq.Header.Get("Token"); got != "secret-token" {
		t.Errorf("Token header = %q, want secret-token", got)
	}
	if gotBody.StartDate != "2026-08-31 08:00:00" {
		t.Errorf("StartDate = %q, want vendor layout", gotBody.StartDate)
	}
	if gotBody.EndDate != "2026-08-31 09:00:00" {
		t.Errorf("EndDate = %q, want vendor layout", gotBody.EndDate)
	}
	if gotBody.BadgeNumber != "1001" {
		t.Errorf("BadgeNumber = %q, want 1001", gotBody.BadgeNumber)
	}
}

func TestFetchTransactionsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token rejected", http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := newClientForTest(ts, "bad-token")
	_, err := client.FetchTransactions(context.Background(), TransactionRequest{
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	if err == nil {
		t.Fatal("FetchTransactions() error = nil, want HTTP 401 failure")
	}
	if !strings.Contains(err.Error(), "HTTP 401") {
		t.Errorf("error = %v, want HTTP 401 mention", err)
	}
	if !strings.Contains(err.Error(), "token rejected") {
		t.Errorf("error = %v, want response body included", err)
	}
}

func TestFetchTransactionsRetriesOn429(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"message":[]}`))
	}))
	defer ts.Close()

	client := newClientForTest(ts, "tok")
	records, err := client.FetchTransactions(context.Background(), TransactionRequest{
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	if err != nil {
		t.Fatalf("FetchTransactions() error = %v", err)
	}
	if records != nil && len(records) != 0 {
		t.Errorf("got %d records, want none", len(records))
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3 (two 429s then success)", calls)
	}
}

func TestFetchTransactionsGivesUpAfter429Retries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := newClientForTest(ts, "tok")
	client.maxRetries = 2
	_, err := client.FetchTransactions(context.Background(), TransactionRequest{
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	if err == nil {
		t.Fatal("FetchTransactions() error = nil, want rate limit failure")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error = %v, want rate limit mention", err)
	}
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":[]}`))
	}))
	defer ts.Close()

	client := newClientForTest(ts, "tok")
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
