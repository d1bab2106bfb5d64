// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine. Defaults
// reproduce the documented "v2" weight profiles; alternates observed in
// earlier iterations are noted on each field.
type Config struct {
	// UserUser weighs the user-user similarity factors.
	UserUser UserUserWeights `json:"user_user" koanf:"user_user"`

	// UserRepo weighs the user-repository similarity factors.
	UserRepo UserRepoWeights `json:"user_repo" koanf:"user_repo"`

	// RepoRepo weighs the repository-repository similarity factors.
	RepoRepo RepoRepoWeights `json:"repo_repo" koanf:"repo_repo"`

	// Scale contains scale-scoring parameters.
	Scale ScaleConfig `json:"scale" koanf:"scale"`

	// UserPool sizes the candidate pool for user candidates.
	UserPool PoolSizing `json:"user_pool" koanf:"user_pool"`

	// RepoPool sizes the candidate pool for repository candidates.
	RepoPool PoolSizing `json:"repo_pool" koanf:"repo_pool"`

	// UserBuckets bounds per-type node counts for user candidates.
	UserBuckets BucketBounds `json:"user_buckets" koanf:"user_buckets"`

	// RepoBuckets bounds per-type node counts for repository candidates.
	RepoBuckets BucketBounds `json:"repo_buckets" koanf:"repo_buckets"`

	// EdgeCutoff is K in the "first K connected, rest floating" rule.
	// Source iterations disagree on a fixed 10 vs. tier-proportional K,
	// so it is configuration. Default: 10.
	EdgeCutoff int `json:"edge_cutoff" koanf:"edge_cutoff"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Seed is the RNG seed for the in-bucket shuffle. Zero seeds from the
	// clock, which is the production default: floating-tier order is
	// intentionally randomized between identical calls.
	Seed int64 `json:"seed" koanf:"seed"`
}

// UserUserWeights weighs the user-user similarity factors.
// Default profile 30/30/40; an earlier iteration used 40/40/20.
type UserUserWeights struct {
	// Language is the weight of language-vector cosine similarity.
	Language float64 `json:"language" koanf:"language"`

	// Topic is the weight of topic-set Jaccard similarity.
	Topic float64 `json:"topic" koanf:"topic"`

	// Activity is the weight of the activity-closeness score.
	Activity float64 `json:"activity" koanf:"activity"`
}

// Normalize returns a copy with weights summing to 1.0. All-zero weights
// fall back to the default profile.
func (w UserUserWeights) Normalize() UserUserWeights {
	sum := w.Language + w.Topic + w.Activity
	if sum == 0 {
		return UserUserWeights{Language: 0.3, Topic: 0.3, Activity: 0.4}
	}
	return UserUserWeights{
		Language: w.Language / sum,
		Topic:    w.Topic / sum,
		Activity: w.Activity / sum,
	}
}

// UserRepoWeights weighs the user-repository similarity factors.
// Default profile 40/40/20.
type UserRepoWeights struct {
	// Language is the weight of the user's share of the repo's primary language.
	Language float64 `json:"language" koanf:"language"`

	// Topic is the weight of topic-set Jaccard similarity.
	Topic float64 `json:"topic" koanf:"topic"`

	// ScaleRecency is the weight of the repo's popularity-and-freshness score.
	ScaleRecency float64 `json:"scale_recency" koanf:"scale_recency"`
}

// Normalize returns a copy with weights summing to 1.0.
func (w UserRepoWeights) Normalize() UserRepoWeights {
	sum := w.Language + w.Topic + w.ScaleRecency
	if sum == 0 {
		return UserRepoWeights{Language: 0.4, Topic: 0.4, ScaleRecency: 0.2}
	}
	return UserRepoWeights{
		Language:     w.Language / sum,
		Topic:        w.Topic / sum,
		ScaleRecency: w.ScaleRecency / sum,
	}
}

// RepoRepoWeights weighs the repository-repository similarity factors.
// Default profile 30/40/20/10; an earlier iteration used 30/40/30/0.
type RepoRepoWeights struct {
	// Language is the weight of language-vector cosine similarity.
	Language float64 `json:"language" koanf:"language"`

	// Topic is the weight of topic-set Jaccard similarity.
	Topic float64 `json:"topic" koanf:"topic"`

	// Contributor is the weight of contributor-set Jaccard similarity.
	Contributor float64 `json:"contributor" koanf:"contributor"`

	// SizeRecency is the weight of the size/update-time closeness score.
	SizeRecency float64 `json:"size_recency" koanf:"size_recency"`
}

// Normalize returns a copy with weights summing to 1.0.
func (w RepoRepoWeights) Normalize() RepoRepoWeights {
	sum := w.Language + w.Topic + w.Contributor + w.SizeRecency
	if sum == 0 {
		return RepoRepoWeights{Language: 0.3, Topic: 0.4, Contributor: 0.2, SizeRecency: 0.1}
	}
	return RepoRepoWeights{
		Language:    w.Language / sum,
		Topic:       w.Topic / sum,
		Contributor: w.Contributor / sum,
		SizeRecency: w.SizeRecency / sum,
	}
}

// ScaleConfig contains scale-scoring parameters.
type ScaleConfig struct {
	// ActivityWindow is how recently a repository must have been updated
	// to count as active. Default: 365 days.
	ActivityWindow time.Duration `json:"activity_window" koanf:"activity_window"`

	// InactiveMultiplier scales the variable portion of a repository's
	// score when it is outside the activity window. Default: 0.5.
	InactiveMultiplier float64 `json:"inactive_multiplier" koanf:"inactive_multiplier"`
}

// PoolSizing controls candidate pool sizing for one candidate kind.
// Target size is Base + (scale-20)*PerPoint, clamped to [Min, Max].
type PoolSizing struct {
	// Base is the pool size at the minimum scale score.
	Base int `json:"base" koanf:"base"`

	// PerPoint is the growth per scale point above 20.
	PerPoint int `json:"per_point" koanf:"per_point"`

	// Min is the lower clamp.
	Min int `json:"min" koanf:"min"`

	// Max is the upper clamp.
	Max int `json:"max" koanf:"max"`
}

// Target computes the pool size for an anchor scale score.
func (p PoolSizing) Target(scale float64) int {
	n := p.Base + int((scale-20)*float64(p.PerPoint))
	if n < p.Min {
		n = p.Min
	}
	if n > p.Max {
		n = p.Max
	}
	return n
}

// BucketBounds bounds the node count per node type for one candidate kind.
type BucketBounds struct {
	// MentorMax caps the mentor bucket.
	MentorMax int `json:"mentor_max" koanf:"mentor_max"`

	// PeerMax caps the peer bucket.
	PeerMax int `json:"peer_max" koanf:"peer_max"`

	// FloatingMax caps the floating bucket.
	FloatingMax int `json:"floating_max" koanf:"floating_max"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// RequestTimeout is the overall pipeline deadline. Default: 30s.
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout"`

	// TierTimeout is the sub-timeout for one candidate-source tier fetch.
	// A tier that misses it degrades to an empty sub-pool. Default: 10s.
	TierTimeout time.Duration `json:"tier_timeout" koanf:"tier_timeout"`

	// ScoreWorkers bounds the parallel similarity-scoring workers, to
	// respect upstream rate limits. Default: 10.
	ScoreWorkers int `json:"score_workers" koanf:"score_workers"`

	// FanOutWorkers bounds the parallel tier fetches. Default: 3.
	FanOutWorkers int `json:"fan_out_workers" koanf:"fan_out_workers"`

	// MaxCount caps the request's node count override. Default: 100.
	MaxCount int `json:"max_count" koanf:"max_count"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		UserUser: UserUserWeights{Language: 0.3, Topic: 0.3, Activity: 0.4},
		UserRepo: UserRepoWeights{Language: 0.4, Topic: 0.4, ScaleRecency: 0.2},
		RepoRepo: RepoRepoWeights{Language: 0.3, Topic: 0.4, Contributor: 0.2, SizeRecency: 0.1},
		Scale: ScaleConfig{
			ActivityWindow:     365 * 24 * time.Hour,
			InactiveMultiplier: 0.5,
		},
		UserPool: PoolSizing{Base: 100, PerPoint: 5, Min: 100, Max: 200},
		RepoPool: PoolSizing{Base: 60, PerPoint: 2, Min: 60, Max: 100},
		UserBuckets: BucketBounds{
			MentorMax:   10,
			PeerMax:     15,
			FloatingMax: 20,
		},
		RepoBuckets: BucketBounds{
			MentorMax:   5,
			PeerMax:     7,
			FloatingMax: 12,
		},
		EdgeCutoff: 10,
		Limits: LimitsConfig{
			RequestTimeout: 30 * time.Second,
			TierTimeout:    10 * time.Second,
			ScoreWorkers:   10,
			FanOutWorkers:  3,
			MaxCount:       100,
		},
		Seed: 0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name string
		p    PoolSizing
	}{{"user_pool", c.UserPool}, {"repo_pool", c.RepoPool}} {
		if p.p.Min < 1 {
			return fmt.Errorf("%s.min must be positive, got %d", p.name, p.p.Min)
		}
		if p.p.Max < p.p.Min {
			return fmt.Errorf("%s.max must be >= %s.min, got %d < %d", p.name, p.name, p.p.Max, p.p.Min)
		}
		if p.p.PerPoint < 0 {
			return fmt.Errorf("%s.per_point must be non-negative, got %d", p.name, p.p.PerPoint)
		}
	}

	for _, b := range []struct {
		name string
		b    BucketBounds
	}{{"user_buckets", c.UserBuckets}, {"repo_buckets", c.RepoBuckets}} {
		if b.b.MentorMax < 1 || b.b.PeerMax < 1 || b.b.FloatingMax < 1 {
			return fmt.Errorf("%s bounds must be positive", b.name)
		}
	}

	if c.EdgeCutoff < 0 {
		return fmt.Errorf("edge_cutoff must be non-negative, got %d", c.EdgeCutoff)
	}
	if c.Scale.InactiveMultiplier <= 0 || c.Scale.InactiveMultiplier > 1 {
		return fmt.Errorf("scale.inactive_multiplier must be in (0, 1], got %f", c.Scale.InactiveMultiplier)
	}
	if c.Scale.ActivityWindow <= 0 {
		return fmt.Errorf("scale.activity_window must be positive, got %v", c.Scale.ActivityWindow)
	}
	if c.Limits.RequestTimeout <= 0 {
		return fmt.Errorf("limits.request_timeout must be positive, got %v", c.Limits.RequestTimeout)
	}
	if c.Limits.TierTimeout <= 0 {
		return fmt.Errorf("limits.tier_timeout must be positive, got %v", c.Limits.TierTimeout)
	}
	if c.Limits.ScoreWorkers < 1 {
		return fmt.Errorf("limits.score_workers must be positive, got %d", c.Limits.ScoreWorkers)
	}
	if c.Limits.FanOutWorkers < 1 {
		return fmt.Errorf("limits.fan_out_workers must be positive, got %d", c.Limits.FanOutWorkers)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs are value types.
	cp := *c
	return &cp
}

// poolSizing selects the sizing for a candidate kind.
func (c *Config) poolSizing(kind EntityKind) PoolSizing {
	if kind == KindUser {
		return c.UserPool
	}
	return c.RepoPool
}

// bucketBounds selects the bounds for a candidate kind.
func (c *Config) bucketBounds(kind EntityKind) BucketBounds {
	if kind == KindUser {
		return c.UserBuckets
	}
	return c.RepoBuckets
}
