// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Frank-whw/OpenChain/internal/models"
	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// mockRecommender is a hand-rolled Recommender for handler tests.
type mockRecommender struct {
	fn func(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

func (m *mockRecommender) Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error) {
	return m.fn(ctx, req)
}

func newTestRouter(fn func(ctx context.Context, req recommend.Request) (*recommend.Response, error)) http.Handler {
	cfg := DefaultRouterConfig()
	cfg.GraphRateLimit = 1000
	return NewRouter(NewHandler(&mockRecommender{fn: fn}, "test"), cfg)
}

func postGraph(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, models.GraphResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/graph", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp models.GraphResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestGraphHappyPath(t *testing.T) {
	var gotReq recommend.Request
	router := newTestRouter(func(_ context.Context, req recommend.Request) (*recommend.Response, error) {
		gotReq = req
		return &recommend.Response{
			Center: recommend.Center{ID: "torvalds", Kind: "user"},
			Nodes: []recommend.Node{{
				ID:   "golang/go",
				Kind: "repo",
				Type: recommend.NodeMentor,
			}},
			Links:    []recommend.Edge{{Source: "torvalds", Target: "golang/go", Weight: 0.8}},
			PoolSize: 42,
		}, nil
	})

	rec, resp := postGraph(t, router, `{"anchorKind":"user","anchorId":"torvalds","targetKind":"repo","resultCount":5}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("response = %+v, want success with data", resp)
	}
	if resp.Data.Center.ID != "torvalds" {
		t.Errorf("center = %+v", resp.Data.Center)
	}
	if len(resp.Data.Nodes) != 1 || len(resp.Data.Links) != 1 {
		t.Errorf("graph = %d nodes / %d links, want 1/1", len(resp.Data.Nodes), len(resp.Data.Links))
	}
	if gotReq.AnchorKind != recommend.KindUser || gotReq.TargetKind != recommend.KindRepo || gotReq.Count != 5 {
		t.Errorf("engine request = %+v", gotReq)
	}
	if gotReq.RequestID == "" {
		t.Error("request id not propagated to the engine")
	}
}

func TestGraphValidation(t *testing.T) {
	router := newTestRouter(func(_ context.Context, _ recommend.Request) (*recommend.Response, error) {
		t.Fatal("engine called for invalid request")
		return nil, nil
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"bad anchor kind", `{"anchorKind":"org","anchorId":"x","targetKind":"user"}`},
		{"missing anchor id", `{"anchorKind":"user","targetKind":"user"}`},
		{"repo anchor without owner", `{"anchorKind":"repo","anchorId":"justaname","targetKind":"repo"}`},
		{"oversized count", `{"anchorKind":"user","anchorId":"x","targetKind":"user","resultCount":5000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postGraph(t, router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if resp.Success || resp.ErrorType != "VALIDATION_ERROR" {
				t.Errorf("response = %+v, want VALIDATION_ERROR envelope", resp)
			}
		})
	}
}

func TestGraphErrorMapping(t *testing.T) {
	tests := []struct {
		kind       recommend.ErrorKind
		wantStatus int
	}{
		{recommend.KindUserNotFound, http.StatusNotFound},
		{recommend.KindRepoNotFound, http.StatusNotFound},
		{recommend.KindRateLimit, http.StatusTooManyRequests},
		{recommend.KindNoRecommendations, http.StatusUnprocessableEntity},
		{recommend.KindNoUserRepos, http.StatusUnprocessableEntity},
		{recommend.KindRepoRecommendation, http.StatusBadGateway},
		{recommend.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			router := newTestRouter(func(_ context.Context, _ recommend.Request) (*recommend.Response, error) {
				return nil, recommend.NewError(tt.kind, "boom", nil)
			})

			rec, resp := postGraph(t, router, `{"anchorKind":"user","anchorId":"x","targetKind":"user"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Success {
				t.Error("success = true on failure")
			}
			if resp.ErrorType != string(tt.kind) {
				t.Errorf("errorType = %q, want %q", resp.ErrorType, tt.kind)
			}
			if resp.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestExplain(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/explain?type=user-repo&mode=detailed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.ExplainResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !strings.Contains(resp.Explanation, "User-repository similarity") {
		t.Errorf("explain = %+v", resp)
	}

	// Unknown subject is rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/explain?type=galaxy", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for unknown type, want 400", rec.Code)
	}
}
