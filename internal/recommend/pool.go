// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PoolBuilder assembles the candidate pool from three weighted source tiers.
// Tiers are fetched concurrently, each under its own sub-timeout; a tier that
// fails or times out degrades to an empty sub-pool. Only when every tier fails
// does the builder report an error.
type PoolBuilder struct {
	cfg      *Config
	provider MetricsProvider
	log      zerolog.Logger
}

// NewPoolBuilder builds a pool builder.
func NewPoolBuilder(cfg *Config, provider MetricsProvider, log zerolog.Logger) *PoolBuilder {
	return &PoolBuilder{
		cfg:      cfg,
		provider: provider,
		log:      log.With().Str("component", "pool").Logger(),
	}
}

// tierResult carries one tier's outcome out of the fan-out.
type tierResult struct {
	tier     SourceTier
	entities []Entity
	err      error
}

// Build fetches and merges the candidate pool for an anchor. The pool is
// deduplicated by id, never contains the anchor, and is capped at the target
// size derived from the anchor's scale score.
func (b *PoolBuilder) Build(ctx context.Context, anchor *Entity, targetKind EntityKind, scale ScaleResult) ([]CandidateRef, error) {
	target := b.cfg.poolSizing(targetKind).Target(scale.Score)

	quotas := map[SourceTier]int{
		SourceDirect:   quota(target, SourceDirect.Weight()),
		SourceTopical:  quota(target, SourceTopical.Weight()),
		SourceTrending: quota(target, SourceTrending.Weight()),
	}

	results := make([]tierResult, 3)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Limits.FanOutWorkers)

	for i, tier := range []SourceTier{SourceDirect, SourceTopical, SourceTrending} {
		i, tier := i, tier
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, b.cfg.Limits.TierTimeout)
			defer cancel()

			entities, err := b.fetchTier(tctx, tier, anchor, targetKind, quotas[tier])
			if err != nil {
				b.log.Warn().Err(err).
					Str("tier", tier.String()).
					Str("anchor", anchor.ID).
					Msg("tier fetch degraded to empty")
			}
			results[i] = tierResult{tier: tier, entities: entities, err: err}
			// Degradation is handled per tier; never abort siblings.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var tierErrs []error
	for _, r := range results {
		if r.err != nil {
			failed++
			tierErrs = append(tierErrs, r.err)
		}
	}
	if failed == len(results) {
		kind := KindUserRecommendation
		if targetKind == KindRepo {
			kind = KindRepoRecommendation
		}
		return nil, NewError(kind, "no candidate source available", errors.Join(tierErrs...))
	}

	pool := b.merge(anchor.ID, results, target)
	b.log.Debug().
		Str("anchor", anchor.ID).
		Int("target", target).
		Int("pool", len(pool)).
		Int("tiers_failed", failed).
		Msg("pool assembled")
	return pool, nil
}

// merge combines tier results in priority order with id dedup. The first tier
// to produce an id wins provenance.
func (b *PoolBuilder) merge(anchorID string, results []tierResult, target int) []CandidateRef {
	seen := make(map[string]struct{}, target)
	pool := make([]CandidateRef, 0, target)
	for _, r := range results {
		for i := range r.entities {
			e := r.entities[i]
			if e.ID == "" || e.ID == anchorID {
				continue
			}
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			pool = append(pool, CandidateRef{
				Entity:       e,
				Source:       r.tier,
				SourceWeight: r.tier.Weight(),
			})
			if len(pool) >= target {
				return pool
			}
		}
	}
	return pool
}

// fetchTier dispatches one tier fetch for the anchor/target pairing.
func (b *PoolBuilder) fetchTier(ctx context.Context, tier SourceTier, anchor *Entity, targetKind EntityKind, limit int) ([]Entity, error) {
	switch tier {
	case SourceDirect:
		return b.fetchDirect(ctx, anchor, targetKind, limit)
	case SourceTopical:
		return b.fetchTopical(ctx, anchor, targetKind, limit)
	default:
		return b.provider.GetTrending(ctx, targetKind, limit)
	}
}

// fetchDirect returns entities directly linked to the anchor. Pairings with
// two link kinds split the quota between them and tolerate one of the two
// calls failing as long as the other produced something.
func (b *PoolBuilder) fetchDirect(ctx context.Context, anchor *Entity, targetKind EntityKind, limit int) ([]Entity, error) {
	switch {
	case anchor.Kind == KindUser && targetKind == KindUser:
		return b.mergeHalves(ctx, limit,
			func(ctx context.Context, n int) ([]Entity, error) { return b.provider.GetFollowers(ctx, anchor.ID, n) },
			func(ctx context.Context, n int) ([]Entity, error) { return b.provider.GetFollowing(ctx, anchor.ID, n) },
		)
	case anchor.Kind == KindUser && targetKind == KindRepo:
		return b.mergeHalves(ctx, limit,
			func(ctx context.Context, n int) ([]Entity, error) { return b.provider.GetStarred(ctx, anchor.ID, n) },
			func(ctx context.Context, n int) ([]Entity, error) { return b.provider.GetUserRepos(ctx, anchor.ID, n) },
		)
	case anchor.Kind == KindRepo && targetKind == KindUser:
		return b.provider.GetContributors(ctx, anchor.ID, limit)
	default:
		return b.provider.GetOrgRepos(ctx, repoOwner(anchor.ID), limit)
	}
}

// mergeHalves runs two link fetches sequentially with a split quota. Both
// failing propagates the first error.
func (b *PoolBuilder) mergeHalves(ctx context.Context, limit int, first, second func(context.Context, int) ([]Entity, error)) ([]Entity, error) {
	half := limit / 2
	if half < 1 {
		half = 1
	}
	a, errA := first(ctx, half)
	c, errB := second(ctx, limit-len(a))
	if errA != nil && errB != nil {
		return nil, errA
	}
	return append(a, c...), nil
}

// fetchTopical returns entities matching the anchor's topics, falling back to
// its dominant language when no topics are known. An anchor with neither
// signal contributes an empty (not failed) topical tier.
func (b *PoolBuilder) fetchTopical(ctx context.Context, anchor *Entity, targetKind EntityKind, limit int) ([]Entity, error) {
	if topics := anchor.Topics(); len(topics) > 0 {
		return b.provider.SearchByTopic(ctx, topics, targetKind, limit)
	}
	if lang := dominantLanguage(anchor.LanguageShares()); lang != "" {
		return b.provider.SearchByLanguage(ctx, lang, targetKind, limit)
	}
	return nil, nil
}

// dominantLanguage returns the highest-share language, empty for no signal.
// Ties resolve to the lexicographically smaller name for determinism.
func dominantLanguage(shares map[string]float64) string {
	var best string
	var bestShare float64
	for lang, share := range shares {
		if share > bestShare || (share == bestShare && (best == "" || lang < best)) {
			best, bestShare = lang, share
		}
	}
	return best
}

// repoOwner extracts the owner from an "owner/name" id.
func repoOwner(fullName string) string {
	if i := strings.IndexByte(fullName, '/'); i > 0 {
		return fullName[:i]
	}
	return fullName
}

// quota rounds a tier's share of the pool target, with a floor of 1.
func quota(target int, weight float64) int {
	n := int(float64(target)*weight + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
