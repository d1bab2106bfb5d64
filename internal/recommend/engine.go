// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine orchestrates the recommendation pipeline: anchor fetch, scale
// scoring, candidate pool assembly, parallel similarity scoring,
// stratification and edge emission.
//
// Each call runs a short-lived, independent pipeline. The engine holds no
// cross-request mutable state, so a single Engine serves concurrent requests.
type Engine struct {
	cfg        *Config
	provider   MetricsProvider
	scale      *ScaleScorer
	similarity *SimilarityScorer
	pool       *PoolBuilder
	stratifier *Stratifier
	log        zerolog.Logger
}

// NewEngine builds an engine. A nil config uses defaults.
func NewEngine(cfg *Config, provider MetricsProvider, log zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if provider == nil {
		return nil, errors.New("nil metrics provider")
	}
	cfg = cfg.Clone()

	return &Engine{
		cfg:        cfg,
		provider:   provider,
		scale:      NewScaleScorer(cfg.Scale),
		similarity: NewSimilarityScorer(cfg),
		pool:       NewPoolBuilder(cfg, provider, log),
		stratifier: NewStratifier(cfg),
		log:        log.With().Str("component", "engine").Logger(),
	}, nil
}

// Recommend runs the full pipeline for one request. Failures come back as
// typed *Error values; the raw cause never needs to cross the API boundary.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Limits.RequestTimeout)
	defer cancel()

	log := e.log.With().
		Str("request_id", req.RequestID).
		Str("anchor", req.AnchorID).
		Str("anchor_kind", req.AnchorKind.String()).
		Str("target_kind", req.TargetKind.String()).
		Logger()

	anchor, err := e.fetchAnchor(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("anchor fetch failed")
		return nil, err
	}

	anchorScale := e.scale.Score(anchor)

	pool, err := e.pool.Build(ctx, anchor, req.TargetKind, anchorScale)
	if err != nil {
		log.Warn().Err(err).Msg("pool assembly failed")
		return nil, err
	}
	if len(pool) == 0 {
		return nil, e.emptyPoolError(anchor, req.TargetKind)
	}

	scoredPool, err := e.scorePool(ctx, anchor, pool)
	if err != nil {
		return nil, err
	}

	nodes := e.stratifier.Stratify(scoredPool, req.TargetKind)
	if count := e.boundedCount(req.Count); count > 0 && len(nodes) > count {
		nodes = topRanked(nodes, count)
	}
	if len(nodes) == 0 {
		return nil, NewError(KindNoRecommendations, "no recommendations found", nil)
	}

	resp := &Response{
		Center:    Center{ID: anchor.ID, Kind: anchor.Kind.String()},
		Nodes:     nodes,
		Links:     e.emitEdges(anchor.ID, nodes),
		PoolSize:  len(pool),
		LatencyMS: time.Since(start).Milliseconds(),
	}

	log.Info().
		Int("pool", len(pool)).
		Int("nodes", len(nodes)).
		Int("links", len(resp.Links)).
		Float64("anchor_scale", anchorScale.Score).
		Int64("latency_ms", resp.LatencyMS).
		Msg("recommendation assembled")
	return resp, nil
}

// fetchAnchor retrieves the fully hydrated anchor. Any failure here is fatal.
func (e *Engine) fetchAnchor(ctx context.Context, req Request) (*Entity, error) {
	var (
		anchor *Entity
		err    error
	)
	if req.AnchorKind == KindUser {
		anchor, err = e.provider.GetUser(ctx, req.AnchorID)
	} else {
		anchor, err = e.provider.GetRepo(ctx, req.AnchorID)
	}
	if err != nil {
		return nil, e.classifyAnchorError(req, err)
	}
	if anchor == nil {
		return nil, NewError(KindInternal, "provider returned no anchor", nil)
	}
	return anchor, nil
}

// classifyAnchorError maps provider failures on the anchor fetch to the
// public taxonomy.
func (e *Engine) classifyAnchorError(req Request, err error) error {
	switch {
	case errors.Is(err, ErrRateLimited):
		return NewError(KindRateLimit, "upstream rate limit exceeded", err)
	case errors.Is(err, ErrNotFound) && req.AnchorKind == KindUser:
		return NewError(KindUserNotFound, fmt.Sprintf("user %q not found", req.AnchorID), err)
	case errors.Is(err, ErrNotFound):
		return NewError(KindRepoNotFound, fmt.Sprintf("repository %q not found", req.AnchorID), err)
	case req.TargetKind == KindRepo:
		return NewError(KindRepoRecommendation, "failed to fetch anchor metrics", err)
	default:
		return NewError(KindUserRecommendation, "failed to fetch anchor metrics", err)
	}
}

// emptyPoolError diagnoses why a pool came back empty without any tier
// reporting a failure.
func (e *Engine) emptyPoolError(anchor *Entity, targetKind EntityKind) error {
	switch {
	case anchor.Kind == KindRepo && targetKind == KindUser &&
		(anchor.Repo == nil || len(anchor.Repo.Contributors) == 0):
		return NewError(KindNoContributors, fmt.Sprintf("repository %q has no reachable contributors", anchor.ID), nil)
	case anchor.Kind == KindUser && anchor.User != nil && anchor.User.PublicRepos == 0:
		return NewError(KindNoUserRepos, fmt.Sprintf("user %q has no public repositories", anchor.ID), nil)
	case anchor.Kind == KindUser && len(anchor.LanguageShares()) == 0 && len(anchor.Topics()) == 0:
		return NewError(KindNoLanguagePreference, fmt.Sprintf("user %q has no language or topic signal", anchor.ID), nil)
	default:
		return NewError(KindNoRecommendations, "no recommendations found", nil)
	}
}

// scorePool hydrates and scores every pool member with a bounded worker
// group. A candidate that cannot be hydrated keeps its partial metrics and
// scores with neutral contributions instead of failing the request.
func (e *Engine) scorePool(ctx context.Context, anchor *Entity, pool []CandidateRef) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Limits.ScoreWorkers)
	for i := range pool {
		i := i
		g.Go(func() error {
			ref := pool[i]
			entity := e.hydrate(gctx, &ref.Entity)
			ref.Entity = *entity
			scored[i] = ScoredCandidate{
				Ref:        ref,
				Scale:      e.scale.Score(entity),
				Similarity: e.similarity.Score(anchor, entity),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewError(KindInternal, "candidate scoring failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewError(KindInternal, "request deadline exceeded", err)
	}
	return scored, nil
}

// hydrate fills in candidate metrics when the list endpoint returned only an
// id. Hydration failures are non-fatal and leave the partial entity in place.
func (e *Engine) hydrate(ctx context.Context, partial *Entity) *Entity {
	if partial.User != nil || partial.Repo != nil {
		return partial
	}

	var (
		full *Entity
		err  error
	)
	if partial.Kind == KindUser {
		full, err = e.provider.GetUser(ctx, partial.ID)
	} else {
		full, err = e.provider.GetRepo(ctx, partial.ID)
	}
	if err != nil || full == nil {
		e.log.Debug().Err(err).Str("candidate", partial.ID).Msg("hydration failed, scoring partial entity")
		if partial.Kind == KindUser {
			partial.User = &UserMetrics{}
		} else {
			partial.Repo = &RepoMetrics{}
		}
		return partial
	}
	return full
}

// emitEdges connects the center to the K highest-ranked mentor and peer
// nodes, following the selection rank rather than the shuffled display
// order. Floating nodes stay edge-less; they exist for visual density only.
func (e *Engine) emitEdges(centerID string, nodes []Node) []Edge {
	connectable := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == NodeFloating {
			continue
		}
		connectable = append(connectable, n)
	}
	sort.Slice(connectable, func(i, j int) bool {
		return connectable[i].Rank < connectable[j].Rank
	})

	limit := e.cfg.EdgeCutoff
	if limit > len(connectable) {
		limit = len(connectable)
	}
	edges := make([]Edge, 0, limit)
	for _, n := range connectable[:limit] {
		edges = append(edges, Edge{
			Source: centerID,
			Target: n.ID,
			Weight: n.Similarity.Score,
		})
	}
	return edges
}

// topRanked keeps the count highest-priority nodes, preserving their display
// order. Ranks are contiguous from 0, so the cut is a rank threshold.
func topRanked(nodes []Node, count int) []Node {
	kept := make([]Node, 0, count)
	for _, n := range nodes {
		if n.Rank < count {
			kept = append(kept, n)
		}
	}
	return kept
}

// boundedCount clamps a requested result count to the configured maximum.
func (e *Engine) boundedCount(count int) int {
	if count < 0 {
		return 0
	}
	if count > e.cfg.Limits.MaxCount {
		return e.cfg.Limits.MaxCount
	}
	return count
}
