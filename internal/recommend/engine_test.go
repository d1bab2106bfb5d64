// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func repoEntities(prefix string, n int, stars int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = Entity{
			ID:   fmt.Sprintf("%s/repo-%d", prefix, i),
			Kind: KindRepo,
			Repo: &RepoMetrics{
				Stars:           stars * (i + 1),
				Forks:           stars * (i + 1) / 5,
				PrimaryLanguage: "Go",
				LanguageShares:  map[string]float64{"Go": 1},
				Topics:          []string{"cli", "tools"},
				LastUpdated:     time.Now().Add(-24 * time.Hour),
			},
		}
	}
	return out
}

func happyProvider() *mockProvider {
	return &mockProvider{
		getUser: func(_ context.Context, login string) (*Entity, error) {
			return &Entity{ID: login, Kind: KindUser, User: &UserMetrics{
				Followers:      5000,
				Following:      10,
				PublicRepos:    30,
				LanguageShares: map[string]float64{"Go": 0.6, "C": 0.4},
				Topics:         []string{"cli", "kernel"},
			}}, nil
		},
		getStarred: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			return repoEntities("starred", 8, 40), nil
		},
		getUserRepos: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			return repoEntities("own", 5, 10000), nil
		},
		searchByTopic: func(_ context.Context, _ []string, _ EntityKind, _ int) ([]Entity, error) {
			return repoEntities("topical", 6, 900), nil
		},
		getTrending: func(_ context.Context, _ EntityKind, _ int) ([]Entity, error) {
			return repoEntities("trending", 4, 80000), nil
		},
	}
}

func newTestEngine(t *testing.T, provider MetricsProvider, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewEngine(cfg, provider, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineHappyPath(t *testing.T) {
	e := newTestEngine(t, happyProvider(), nil)

	resp, err := e.Recommend(context.Background(), Request{
		AnchorKind: KindUser,
		AnchorID:   "torvalds",
		TargetKind: KindRepo,
		Count:      5,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if resp.Center.ID != "torvalds" || resp.Center.Kind != "user" {
		t.Errorf("center = %+v, want torvalds/user", resp.Center)
	}
	if len(resp.Nodes) == 0 {
		t.Fatal("no nodes returned")
	}
	if len(resp.Nodes) > 5 {
		t.Errorf("node count %d exceeds requested 5", len(resp.Nodes))
	}

	seen := map[string]bool{}
	for _, n := range resp.Nodes {
		if n.ID == "torvalds" {
			t.Error("center repeated among recommendation nodes")
		}
		if seen[n.ID] {
			t.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if n.Similarity.Score < 0 || n.Similarity.Score > 1 {
			t.Errorf("node %q similarity %f outside [0, 1]", n.ID, n.Similarity.Score)
		}
		if n.Scale.Score < 20 || n.Scale.Score > 40 {
			t.Errorf("node %q scale %f outside [20, 40]", n.ID, n.Scale.Score)
		}
	}
	if resp.PoolSize == 0 {
		t.Error("pool size not reported")
	}
}

func TestEngineAnchorNotFound(t *testing.T) {
	provider := &mockProvider{
		getUser: func(_ context.Context, login string) (*Entity, error) {
			return nil, fmt.Errorf("GET /users/%s: %w", login, ErrNotFound)
		},
	}
	e := newTestEngine(t, provider, nil)

	_, err := e.Recommend(context.Background(), Request{
		AnchorKind: KindUser,
		AnchorID:   "nonexistent-xyz-1234",
		TargetKind: KindUser,
	})
	if err == nil {
		t.Fatal("Recommend succeeded for unknown anchor")
	}
	if KindOf(err) != KindUserNotFound {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindUserNotFound)
	}

	provider.getRepo = func(_ context.Context, fullName string) (*Entity, error) {
		return nil, fmt.Errorf("GET /repos/%s: %w", fullName, ErrNotFound)
	}
	_, err = e.Recommend(context.Background(), Request{
		AnchorKind: KindRepo,
		AnchorID:   "ghost/ship",
		TargetKind: KindRepo,
	})
	if KindOf(err) != KindRepoNotFound {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindRepoNotFound)
	}
}

func TestEngineRateLimitSurfacedImmediately(t *testing.T) {
	calls := 0
	provider := &mockProvider{
		getUser: func(_ context.Context, _ string) (*Entity, error) {
			calls++
			return nil, fmt.Errorf("API quota exhausted: %w", ErrRateLimited)
		},
	}
	e := newTestEngine(t, provider, nil)

	_, err := e.Recommend(context.Background(), Request{
		AnchorKind: KindUser,
		AnchorID:   "busy",
		TargetKind: KindUser,
	})
	if KindOf(err) != KindRateLimit {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindRateLimit)
	}
	if calls != 1 {
		t.Errorf("anchor fetched %d times, want 1 (no retry on rate limit)", calls)
	}
}

func TestEngineEmptyPoolDiagnosis(t *testing.T) {
	t.Run("user without repos", func(t *testing.T) {
		provider := &mockProvider{
			getUser: func(_ context.Context, login string) (*Entity, error) {
				return &Entity{ID: login, Kind: KindUser, User: &UserMetrics{}}, nil
			},
		}
		e := newTestEngine(t, provider, nil)
		_, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindUser, AnchorID: "lurker", TargetKind: KindRepo,
		})
		if KindOf(err) != KindNoUserRepos {
			t.Errorf("error kind = %v, want %v", KindOf(err), KindNoUserRepos)
		}
	})

	t.Run("user without language signal", func(t *testing.T) {
		provider := &mockProvider{
			getUser: func(_ context.Context, login string) (*Entity, error) {
				return &Entity{ID: login, Kind: KindUser, User: &UserMetrics{PublicRepos: 4}}, nil
			},
		}
		e := newTestEngine(t, provider, nil)
		_, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindUser, AnchorID: "quiet", TargetKind: KindRepo,
		})
		if KindOf(err) != KindNoLanguagePreference {
			t.Errorf("error kind = %v, want %v", KindOf(err), KindNoLanguagePreference)
		}
	})

	t.Run("repo without contributors", func(t *testing.T) {
		provider := &mockProvider{
			getRepo: func(_ context.Context, fullName string) (*Entity, error) {
				return &Entity{ID: fullName, Kind: KindRepo, Repo: &RepoMetrics{Stars: 5}}, nil
			},
		}
		e := newTestEngine(t, provider, nil)
		_, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindRepo, AnchorID: "solo/project", TargetKind: KindUser,
		})
		if KindOf(err) != KindNoContributors {
			t.Errorf("error kind = %v, want %v", KindOf(err), KindNoContributors)
		}
	})
}

func TestEngineEdgeEmission(t *testing.T) {
	e := newTestEngine(t, happyProvider(), func(cfg *Config) {
		cfg.EdgeCutoff = 3
	})

	resp, err := e.Recommend(context.Background(), Request{
		AnchorKind: KindUser,
		AnchorID:   "torvalds",
		TargetKind: KindRepo,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(resp.Links) > 3 {
		t.Errorf("emitted %d edges, want <= 3", len(resp.Links))
	}

	similarityByID := map[string]float64{}
	floating := map[string]bool{}
	for _, n := range resp.Nodes {
		similarityByID[n.ID] = n.Similarity.Score
		if n.Type == NodeFloating {
			floating[n.ID] = true
		}
	}

	for _, l := range resp.Links {
		if l.Source != "torvalds" {
			t.Errorf("edge source %q, want center", l.Source)
		}
		if floating[l.Target] {
			t.Errorf("edge points at floating node %q", l.Target)
		}
		if want, ok := similarityByID[l.Target]; !ok || l.Weight != want {
			t.Errorf("edge to %q weight %f, want node similarity %f", l.Target, l.Weight, want)
		}
	}
}

func TestEngineEdgesFollowSelectionRank(t *testing.T) {
	peerMetrics := func(goShare float64) *UserMetrics {
		return &UserMetrics{
			Followers:           1000,
			Following:           10,
			PublicRepos:         100,
			RecentlyActiveRepos: 100,
			LanguageShares:      map[string]float64{"Go": goShare, "Ruby": 1 - goShare},
			Topics:              []string{"infra"},
		}
	}

	// Six peer-tier followers with strictly decreasing language overlap, so
	// similarity orders them peer-0 > peer-1 > ... > peer-5.
	followers := make([]Entity, 6)
	for i := range followers {
		followers[i] = Entity{
			ID:   fmt.Sprintf("peer-%d", i),
			Kind: KindUser,
			User: peerMetrics(0.9 - 0.1*float64(i)),
		}
	}

	provider := &mockProvider{
		getUser: func(_ context.Context, login string) (*Entity, error) {
			return &Entity{ID: login, Kind: KindUser, User: peerMetrics(1)}, nil
		},
		getFollowers: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			return followers, nil
		},
	}

	// The edge set must not depend on the display shuffle.
	for _, seed := range []int64{2, 9, 41} {
		e := newTestEngine(t, provider, func(cfg *Config) {
			cfg.EdgeCutoff = 2
			cfg.Seed = seed
		})

		resp, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindUser,
			AnchorID:   "anchor",
			TargetKind: KindUser,
		})
		if err != nil {
			t.Fatalf("seed %d: Recommend: %v", seed, err)
		}
		if len(resp.Links) != 2 {
			t.Fatalf("seed %d: emitted %d edges, want 2", seed, len(resp.Links))
		}
		if resp.Links[0].Target != "peer-0" || resp.Links[1].Target != "peer-1" {
			t.Errorf("seed %d: edges went to %q and %q, want highest-similarity peer-0 and peer-1",
				seed, resp.Links[0].Target, resp.Links[1].Target)
		}
	}
}

func TestEngineCountTruncationKeepsTopRanked(t *testing.T) {
	e := newTestEngine(t, happyProvider(), func(cfg *Config) { cfg.Seed = 0 })

	// Count truncation must cut by selection rank, so membership agrees
	// between clock-seeded runs.
	ids := func() map[string]bool {
		resp, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindUser,
			AnchorID:   "torvalds",
			TargetKind: KindRepo,
			Count:      4,
		})
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		out := map[string]bool{}
		for _, n := range resp.Nodes {
			if n.Rank >= 4 {
				t.Errorf("node %q rank %d survived a count cap of 4", n.ID, n.Rank)
			}
			out[n.ID] = true
		}
		return out
	}

	a := ids()
	b := ids()
	if len(a) != len(b) {
		t.Fatalf("truncated node sets differ in size: %d vs %d", len(a), len(b))
	}
	for id := range a {
		if !b[id] {
			t.Errorf("node %q kept in one run and dropped in another", id)
		}
	}
}

func TestEngineStableMembershipAcrossRuns(t *testing.T) {
	provider := happyProvider()

	membership := func() map[string]NodeType {
		// Seed 0 means clock-seeded shuffles; membership must still agree.
		e := newTestEngine(t, provider, func(cfg *Config) { cfg.Seed = 0 })
		resp, err := e.Recommend(context.Background(), Request{
			AnchorKind: KindUser,
			AnchorID:   "torvalds",
			TargetKind: KindRepo,
		})
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		out := map[string]NodeType{}
		for _, n := range resp.Nodes {
			out[n.ID] = n.Type
		}
		return out
	}

	a := membership()
	b := membership()
	if len(a) != len(b) {
		t.Fatalf("node sets differ in size: %d vs %d", len(a), len(b))
	}
	for id, nt := range a {
		if b[id] != nt {
			t.Errorf("node %q type differs across identical runs: %v vs %v", id, nt, b[id])
		}
	}
}

func TestEngineHydratesPartialCandidates(t *testing.T) {
	provider := &mockProvider{
		getUser: func(_ context.Context, login string) (*Entity, error) {
			return &Entity{ID: login, Kind: KindUser, User: &UserMetrics{
				Followers:      100,
				PublicRepos:    10,
				LanguageShares: map[string]float64{"Go": 1},
				Topics:         []string{"infra"},
			}}, nil
		},
		getFollowers: func(_ context.Context, _ string, _ int) ([]Entity, error) {
			// List endpoint returns ids only; metrics arrive via hydration.
			return []Entity{{ID: "sparse", Kind: KindUser}}, nil
		},
	}
	e := newTestEngine(t, provider, nil)

	resp, err := e.Recommend(context.Background(), Request{
		AnchorKind: KindUser,
		AnchorID:   "anchor",
		TargetKind: KindUser,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Nodes) != 1 || resp.Nodes[0].ID != "sparse" {
		t.Fatalf("nodes = %+v, want the hydrated follower", resp.Nodes)
	}
	// Hydration gave the candidate the same profile as the anchor, so the
	// similarity must reflect full metrics, not an empty shell.
	if resp.Nodes[0].Similarity.Score < 0.99 {
		t.Errorf("hydrated similarity = %f, want ~1", resp.Nodes[0].Similarity.Score)
	}
}
