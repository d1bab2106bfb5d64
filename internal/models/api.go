// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package models defines the wire-level request and response shapes of the
// OpenChain HTTP API.
package models

import (
	"time"

	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// GraphRequest is the body of POST /api/graph.
type GraphRequest struct {
	// AnchorKind is the kind of the anchor entity: "user" or "repo".
	AnchorKind string `json:"anchorKind" validate:"required,entitykind"`

	// AnchorID is the anchor's id: a login, or "owner/name" for repositories.
	AnchorID string `json:"anchorId" validate:"required,min=1,max=200"`

	// TargetKind is the kind of entity to recommend: "user" or "repo".
	TargetKind string `json:"targetKind" validate:"required,entitykind"`

	// ResultCount optionally caps the number of returned nodes.
	ResultCount int `json:"resultCount,omitempty" validate:"omitempty,min=1,max=100"`
}

// GraphResponse is the envelope of every /api/graph reply.
type GraphResponse struct {
	// Success reports whether Data is populated.
	Success bool `json:"success"`

	// Data is the recommendation graph, present on success only.
	Data *GraphData `json:"data,omitempty"`

	// Error is a human-readable message, present on failure only.
	Error string `json:"error,omitempty"`

	// ErrorType is the stable machine-readable error kind, present on
	// failure only.
	ErrorType string `json:"errorType,omitempty"`
}

// GraphData is the recommendation graph payload.
type GraphData struct {
	Nodes  []recommend.Node `json:"nodes"`
	Links  []recommend.Edge `json:"links"`
	Center recommend.Center `json:"center"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}

// ExplainRequest carries the query parameters of GET /api/explain.
type ExplainRequest struct {
	// Type is the explanation subject: "user", "repo", or a pairing such
	// as "user-repo".
	Type string `json:"type" validate:"required,oneof=user repo user-user user-repo repo-repo"`

	// Mode selects the detail level: "simple" or "detailed".
	Mode string `json:"mode" validate:"omitempty,oneof=simple detailed"`
}

// ExplainResponse is the body of GET /api/explain.
type ExplainResponse struct {
	Success     bool   `json:"success"`
	Type        string `json:"type"`
	Mode        string `json:"mode"`
	Explanation string `json:"explanation"`
	Error       string `json:"error,omitempty"`
	ErrorType   string `json:"errorType,omitempty"`
}
