// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// mockProvider is a hand-rolled MetricsProvider for tests. Unset hooks return
// empty results.
type mockProvider struct {
	getUser          func(ctx context.Context, login string) (*Entity, error)
	getRepo          func(ctx context.Context, fullName string) (*Entity, error)
	getFollowers     func(ctx context.Context, login string, limit int) ([]Entity, error)
	getFollowing     func(ctx context.Context, login string, limit int) ([]Entity, error)
	getStarred       func(ctx context.Context, login string, limit int) ([]Entity, error)
	getUserRepos     func(ctx context.Context, login string, limit int) ([]Entity, error)
	getOrgRepos      func(ctx context.Context, org string, limit int) ([]Entity, error)
	searchByTopic    func(ctx context.Context, topics []string, kind EntityKind, limit int) ([]Entity, error)
	searchByLanguage func(ctx context.Context, language string, kind EntityKind, limit int) ([]Entity, error)
	getTrending      func(ctx context.Context, kind EntityKind, limit int) ([]Entity, error)
	getContributors  func(ctx context.Context, fullName string, limit int) ([]Entity, error)
}

func (m *mockProvider) GetUser(ctx context.Context, login string) (*Entity, error) {
	if m.getUser != nil {
		return m.getUser(ctx, login)
	}
	return &Entity{ID: login, Kind: KindUser, User: &UserMetrics{}}, nil
}

func (m *mockProvider) GetRepo(ctx context.Context, fullName string) (*Entity, error) {
	if m.getRepo != nil {
		return m.getRepo(ctx, fullName)
	}
	return &Entity{ID: fullName, Kind: KindRepo, Repo: &RepoMetrics{}}, nil
}

func (m *mockProvider) GetFollowers(ctx context.Context, login string, limit int) ([]Entity, error) {
	if m.getFollowers != nil {
		return m.getFollowers(ctx, login, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetFollowing(ctx context.Context, login string, limit int) ([]Entity, error) {
	if m.getFollowing != nil {
		return m.getFollowing(ctx, login, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetStarred(ctx context.Context, login string, limit int) ([]Entity, error) {
	if m.getStarred != nil {
		return m.getStarred(ctx, login, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetUserRepos(ctx context.Context, login string, limit int) ([]Entity, error) {
	if m.getUserRepos != nil {
		return m.getUserRepos(ctx, login, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetOrgRepos(ctx context.Context, org string, limit int) ([]Entity, error) {
	if m.getOrgRepos != nil {
		return m.getOrgRepos(ctx, org, limit)
	}
	return nil, nil
}

func (m *mockProvider) SearchByTopic(ctx context.Context, topics []string, kind EntityKind, limit int) ([]Entity, error) {
	if m.searchByTopic != nil {
		return m.searchByTopic(ctx, topics, kind, limit)
	}
	return nil, nil
}

func (m *mockProvider) SearchByLanguage(ctx context.Context, language string, kind EntityKind, limit int) ([]Entity, error) {
	if m.searchByLanguage != nil {
		return m.searchByLanguage(ctx, language, kind, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetTrending(ctx context.Context, kind EntityKind, limit int) ([]Entity, error) {
	if m.getTrending != nil {
		return m.getTrending(ctx, kind, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetContributors(ctx context.Context, fullName string, limit int) ([]Entity, error) {
	if m.getContributors != nil {
		return m.getContributors(ctx, fullName, limit)
	}
	return nil, nil
}

func users(prefix string, n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = Entity{ID: fmt.Sprintf("%s-%d", prefix, i), Kind: KindUser, User: &UserMetrics{}}
	}
	return out
}

func anchorUser(id string, topics ...string) *Entity {
	return &Entity{ID: id, Kind: KindUser, User: &UserMetrics{Topics: topics}}
}

func TestPoolDedupFirstTierWins(t *testing.T) {
	shared := Entity{ID: "shared", Kind: KindUser, User: &UserMetrics{}}
	provider := &mockProvider{
		getFollowers: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			return []Entity{shared, {ID: "direct-only", Kind: KindUser, User: &UserMetrics{}}}, nil
		},
		searchByTopic: func(_ context.Context, _ []string, _ EntityKind, _ int) ([]Entity, error) {
			return []Entity{shared, {ID: "topical-only", Kind: KindUser, User: &UserMetrics{}}}, nil
		},
		getTrending: func(_ context.Context, _ EntityKind, _ int) ([]Entity, error) {
			return []Entity{shared}, nil
		},
	}

	b := NewPoolBuilder(DefaultConfig(), provider, zerolog.Nop())
	pool, err := b.Build(context.Background(), anchorUser("anchor", "go"), KindUser, ScaleResult{Score: 20})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seen := map[string]SourceTier{}
	for _, c := range pool {
		if prev, dup := seen[c.Entity.ID]; dup {
			t.Fatalf("duplicate id %q (tiers %v and %v)", c.Entity.ID, prev, c.Source)
		}
		seen[c.Entity.ID] = c.Source
	}
	if got, ok := seen["shared"]; !ok || got != SourceDirect {
		t.Errorf("shared candidate provenance = %v, want direct", got)
	}
	if len(pool) != 3 {
		t.Errorf("pool size = %d, want 3", len(pool))
	}
}

func TestPoolExcludesAnchorAndHonorsCap(t *testing.T) {
	provider := &mockProvider{
		getFollowers: func(_ context.Context, _ string, limit int) ([]Entity, error) {
			out := users("f", 300)
			out = append(out, Entity{ID: "anchor", Kind: KindUser, User: &UserMetrics{}})
			return out, nil
		},
		getTrending: func(_ context.Context, _ EntityKind, _ int) ([]Entity, error) {
			return users("t", 300), nil
		},
	}

	cfg := DefaultConfig()
	b := NewPoolBuilder(cfg, provider, zerolog.Nop())

	for _, scale := range []float64{20, 30, 40} {
		pool, err := b.Build(context.Background(), anchorUser("anchor"), KindUser, ScaleResult{Score: scale})
		if err != nil {
			t.Fatalf("Build(scale=%f): %v", scale, err)
		}
		// Partial sources may undershoot the target; only the cap is hard.
		if len(pool) > cfg.UserPool.Max {
			t.Errorf("scale %f: pool size %d exceeds max %d", scale, len(pool), cfg.UserPool.Max)
		}
		want := cfg.UserPool.Target(scale)
		if len(pool) > want {
			t.Errorf("scale %f: pool size %d exceeds target %d", scale, len(pool), want)
		}
		for _, c := range pool {
			if c.Entity.ID == "anchor" {
				t.Errorf("scale %f: anchor leaked into its own pool", scale)
			}
		}
	}
}

func TestPoolTierFailureDegrades(t *testing.T) {
	provider := &mockProvider{
		getFollowers: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			return users("f", 10), nil
		},
		searchByTopic: func(_ context.Context, _ []string, _ EntityKind, _ int) ([]Entity, error) {
			return users("s", 5), nil
		},
		getTrending: func(_ context.Context, _ EntityKind, _ int) ([]Entity, error) {
			return nil, errors.New("upstream 502")
		},
	}

	b := NewPoolBuilder(DefaultConfig(), provider, zerolog.Nop())
	pool, err := b.Build(context.Background(), anchorUser("anchor", "go"), KindUser, ScaleResult{Score: 25})
	if err != nil {
		t.Fatalf("Build with one failed tier: %v", err)
	}
	if len(pool) != 15 {
		t.Errorf("pool size = %d, want 15 from the two healthy tiers", len(pool))
	}
	for _, c := range pool {
		if c.Source == SourceTrending {
			t.Errorf("candidate %q attributed to the failed trending tier", c.Entity.ID)
		}
	}
}

func TestPoolAllTiersFail(t *testing.T) {
	boom := func(_ context.Context, _ string, _ int) ([]Entity, error) {
		return nil, errors.New("down")
	}
	provider := &mockProvider{
		getFollowers: boom,
		getFollowing: boom,
		searchByTopic: func(_ context.Context, _ []string, _ EntityKind, _ int) ([]Entity, error) {
			return nil, errors.New("down")
		},
		getTrending: func(_ context.Context, _ EntityKind, _ int) ([]Entity, error) {
			return nil, errors.New("down")
		},
	}

	b := NewPoolBuilder(DefaultConfig(), provider, zerolog.Nop())
	_, err := b.Build(context.Background(), anchorUser("anchor", "go"), KindUser, ScaleResult{Score: 25})
	if err == nil {
		t.Fatal("Build succeeded with every tier down")
	}
	if KindOf(err) != KindUserRecommendation {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindUserRecommendation)
	}
}

func TestPoolTopicalLanguageFallback(t *testing.T) {
	var searchedLang string
	provider := &mockProvider{
		searchByLanguage: func(_ context.Context, language string, _ EntityKind, _ int) ([]Entity, error) {
			searchedLang = language
			return users("l", 3), nil
		},
	}

	anchor := &Entity{ID: "dev", Kind: KindUser, User: &UserMetrics{
		LanguageShares: map[string]float64{"Go": 0.7, "Python": 0.3},
	}}

	b := NewPoolBuilder(DefaultConfig(), provider, zerolog.Nop())
	pool, err := b.Build(context.Background(), anchor, KindUser, ScaleResult{Score: 25})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if searchedLang != "Go" {
		t.Errorf("fallback searched language %q, want dominant Go", searchedLang)
	}
	if len(pool) != 3 {
		t.Errorf("pool size = %d, want 3", len(pool))
	}
}

func TestDominantLanguage(t *testing.T) {
	if got := dominantLanguage(nil); got != "" {
		t.Errorf("dominantLanguage(nil) = %q, want empty", got)
	}
	got := dominantLanguage(map[string]float64{"Go": 0.5, "Rust": 0.5})
	if got != "Go" {
		t.Errorf("tie resolved to %q, want Go", got)
	}
}
