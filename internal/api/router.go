// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/punchkit/punchsync/internal/config"
	"github.com/punchkit/punchsync/internal/logging"
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter builds the router around a handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup wires all routes and middleware and returns the root handler.
func (rt *Router) Setup() http.Handler {
	if rt.cfg.Security.APIToken == "" {
		logging.Warn().Msg("No API token configured, data endpoints are unauthenticated")
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints stay unauthenticated with a generous rate limit so
	// orchestration probes never get locked out.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.Security.RateLimitPerMin, time.Minute))
		r.Use(prometheusMetrics)
		r.Use(tokenAuth(rt.cfg.Security.APIToken))

		r.Post("/import", rt.handler.ImportAttendance)
		r.Post("/import/trigger", rt.handler.TriggerImport)

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", rt.handler.ListServers)
			r.Post("/", rt.handler.CreateServer)
			r.Get("/{id}", rt.handler.GetServer)
			r.Put("/{id}", rt.handler.UpdateServer)
			r.Post("/{id}/test-connection", rt.handler.TestConnection)
		})

		r.Get("/checkins", rt.handler.ListCheckins)

		r.Route("/summaries", func(r chi.Router) {
			r.Get("/", rt.handler.ListSummaries)
			r.Get("/{id}", rt.handler.GetSummary)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
