// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/Frank-whw/OpenChain/internal/logging"
	"github.com/Frank-whw/OpenChain/internal/metrics"
	"github.com/Frank-whw/OpenChain/internal/models"
	"github.com/Frank-whw/OpenChain/internal/recommend"
	"github.com/Frank-whw/OpenChain/internal/validation"
)

// maxGraphBody bounds the request body size for POST /api/graph.
const maxGraphBody = 16 * 1024

// Recommender is the engine surface the handlers consume.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// Handler holds the API handlers.
type Handler struct {
	engine  Recommender
	version string
}

// NewHandler builds the handler set.
func NewHandler(engine Recommender, version string) *Handler {
	return &Handler{engine: engine, version: version}
}

// Graph handles POST /api/graph: it validates the request, runs the
// recommendation pipeline and returns the node/edge graph envelope.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	var req models.GraphRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxGraphBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, &models.GraphResponse{
			Error:     "malformed request body",
			ErrorType: "VALIDATION_ERROR",
		})
		return
	}

	if msg := validateRequest(&req); msg != "" {
		respondJSON(w, http.StatusBadRequest, &models.GraphResponse{
			Error:     msg,
			ErrorType: "VALIDATION_ERROR",
		})
		return
	}
	// Repository anchors must be addressable before any upstream call.
	if req.AnchorKind == "repo" && !validation.IsRepoFullName(req.AnchorID) {
		respondJSON(w, http.StatusBadRequest, &models.GraphResponse{
			Error:     "anchorId must be in owner/name form",
			ErrorType: "VALIDATION_ERROR",
		})
		return
	}

	anchorKind, _ := recommend.ParseEntityKind(req.AnchorKind)
	targetKind, _ := recommend.ParseEntityKind(req.TargetKind)

	start := time.Now()
	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		AnchorKind: anchorKind,
		AnchorID:   req.AnchorID,
		TargetKind: targetKind,
		Count:      req.ResultCount,
		RequestID:  RequestIDFrom(r.Context()),
	})
	metrics.RecommendationDuration.
		WithLabelValues(req.AnchorKind, req.TargetKind).
		Observe(time.Since(start).Seconds())

	if err != nil {
		kind := recommend.KindOf(err)
		metrics.RecommendationErrors.WithLabelValues(string(kind)).Inc()
		logging.Warn().
			Str("anchor", sanitizeLogValue(req.AnchorID)).
			Str("error_type", string(kind)).
			Msg("recommendation failed")
		respondJSON(w, statusForKind(kind), &models.GraphResponse{
			Error:     recommend.MessageOf(err),
			ErrorType: string(kind),
		})
		return
	}

	metrics.CandidatePoolSize.WithLabelValues(req.TargetKind).Observe(float64(resp.PoolSize))
	respondJSON(w, http.StatusOK, &models.GraphResponse{
		Success: true,
		Data: &models.GraphData{
			Nodes:  resp.Nodes,
			Links:  resp.Links,
			Center: resp.Center,
		},
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Time:    time.Now().UTC(),
	})
}

// Explain handles GET /api/explain: it returns the algorithm explanation for
// a scoring subject.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	req := models.ExplainRequest{
		Type: r.URL.Query().Get("type"),
		Mode: r.URL.Query().Get("mode"),
	}
	if req.Mode == "" {
		req.Mode = "simple"
	}

	if msg := validateRequest(&req); msg != "" {
		respondJSON(w, http.StatusBadRequest, &models.ExplainResponse{
			Error:     msg,
			ErrorType: "VALIDATION_ERROR",
		})
		return
	}

	respondJSON(w, http.StatusOK, &models.ExplainResponse{
		Success:     true,
		Type:        req.Type,
		Mode:        req.Mode,
		Explanation: explanationFor(req.Type, req.Mode),
	})
}
