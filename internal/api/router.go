// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package api provides the HTTP surface of OpenChain using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds HTTP-surface settings.
type RouterConfig struct {
	// AllowedOrigins configures CORS. Default: all origins (the API serves
	// a public visualization frontend).
	AllowedOrigins []string `koanf:"allowed_origins"`

	// GraphRateLimit is the per-IP request budget per minute for the graph
	// endpoint, which fans out to the upstream API. Default: 10.
	GraphRateLimit int `koanf:"graph_rate_limit"`
}

// DefaultRouterConfig returns router defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		AllowedOrigins: []string{"*"},
		GraphRateLimit: 10,
	}
}

// NewRouter assembles the route tree.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		// The graph endpoint burns upstream quota; keep its budget tight.
		r.With(
			httprate.LimitByIP(cfg.GraphRateLimit, time.Minute),
			Instrument("/api/graph"),
		).Post("/graph", h.Graph)

		r.With(Instrument("/api/explain")).Get("/explain", h.Explain)

		// Permissive limit for health so monitors can poll freely.
		r.With(httprate.LimitByIP(1000, time.Minute)).Get("/health", h.Health)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
