// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/punchkit/punchsync/internal/metrics"
	"github.com/punchkit/punchsync/internal/models"
)

// maxErrorBodySize limits how much of a failing response body is read for
// error reporting.
const maxErrorBodySize = 64 * 1024

// RecordFetcher is the outbound vendor API surface a sync cycle depends on.
// Implemented by TerminalClient for production use and by fakes in tests.
type RecordFetcher interface {
	FetchTransactions(ctx context.Context, req TransactionRequest) ([]models.RawPunchRecord, error)
	Ping(ctx context.Context) error
}

// TransactionRequest carries one fetch window. BadgeNumber, when non-empty,
// asks the vendor to filter server-side to a single employee.
type TransactionRequest struct {
	Start       time.Time
	End         time.Time
	BadgeNumber string
}

// transactionPayload is the vendor wire format for a fetch request.
type transactionPayload struct {
	StartDate   string `json:"StartDate"`
	EndDate     string `json:"EndDate"`
	BadgeNumber string `json:"BadgeNumber,omitempty"`
}

// transactionResponse wraps the vendor's record list. BioTime-style servers
// return everything under a "message" key.
type transactionResponse struct {
	Message []models.RawPunchRecord `json:"message"`
}

// TerminalClient talks to one BioTime-style terminal server API.
//
// Requests carry the server token in a Token header, time a 30-second HTTP
// timeout, and retry on HTTP 429 with exponential backoff (honoring
// Retry-After when sent). A client-side rate limiter keeps manual imports
// from hammering devices that double as door controllers.
//
// Thread safety: safe for concurrent use.
type TerminalClient struct {
	endpoint       string
	token          string
	serverID       string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewTerminalClient builds a client for one terminal server configuration.
func NewTerminalClient(server *models.TerminalServer) *TerminalClient {
	return &TerminalClient{
		endpoint: buildEndpoint(server),
		token:    server.Token,
		serverID: server.ID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:        rate.NewLimiter(rate.Limit(2), 4),
		maxRetries:     5,
		retryBaseDelay: time.Second,
	}
}

// buildEndpoint assembles "<api_url>[:<port>]/<api_to_call>/". The port is
// appended only when the configured URL does not already end with it; some
// operators bake the port into api_url and the vendor tooling tolerates
// both forms.
func buildEndpoint(server *models.TerminalServer) string {
	base := strings.TrimRight(server.APIURL, "/")
	if server.Port > 0 {
		portSuffix := strconv.Itoa(server.Port)
		if !strings.HasSuffix(base, portSuffix) {
			base = base + ":" + portSuffix
		}
	}
	return base + "/" + strings.Trim(server.APIToCall, "/") + "/"
}

// FetchTransactions posts the fetch window and returns the raw punch records
// under the response's "message" key. Any non-200 status is a hard failure
// for the calling cycle.
func (c *TerminalClient) FetchTransactions(ctx context.Context, req TransactionRequest) ([]models.RawPunchRecord, error) {
	payload := transactionPayload{
		StartDate:   req.Start.Format(models.VendorTimeLayout),
		EndDate:     req.End.Format(models.VendorTimeLayout),
		BadgeNumber: req.BadgeNumber,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction request: %w", err)
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, body)
	metrics.VendorAPICallDuration.WithLabelValues(c.serverID).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VendorAPIErrors.WithLabelValues(c.serverID, "transport").Inc()
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		metrics.VendorAPIErrors.WithLabelValues(c.serverID, "status").Inc()
		errBody := readBodyForError(resp.Body)
		return nil, fmt.Errorf("terminal server returned HTTP %d: %s", resp.StatusCode, errBody)
	}

	var decoded transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.VendorAPIErrors.WithLabelValues(c.serverID, "decode").Inc()
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}
	return decoded.Message, nil
}

// Ping issues a minimal fetch (an empty one-second window) to verify the
// endpoint is reachable and the token is accepted.
func (c *TerminalClient) Ping(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := c.FetchTransactions(ctx, TransactionRequest{
		Start: now.Add(-time.Second),
		End:   now,
	})
	return err
}

// doRequestWithRateLimit performs the POST with client-side rate limiting and
// automatic HTTP 429 retry. Backoff doubles each attempt (1s, 2s, 4s, 8s,
// 16s), overridden by a Retry-After header when present.
func (c *TerminalClient) doRequestWithRateLimit(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Token", c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads at most maxErrorBodySize bytes of a failing
// response body for inclusion in an error message.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
