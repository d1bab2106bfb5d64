// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"context"
	"time"
)

// EntityKind distinguishes the two entity families the engine works with.
type EntityKind int

const (
	// KindUser is a developer account.
	KindUser EntityKind = iota
	// KindRepo is a repository, identified by "owner/name".
	KindRepo
)

// String returns a human-readable name for the entity kind.
func (k EntityKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindRepo:
		return "repo"
	default:
		return "unknown"
	}
}

// ParseEntityKind converts a wire value ("user" or "repo") to an EntityKind.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch s {
	case "user":
		return KindUser, true
	case "repo":
		return KindRepo, true
	default:
		return 0, false
	}
}

// UserMetrics holds the raw signals for a developer account.
// Absent fields are zero and score as neutral contributions.
type UserMetrics struct {
	// OpenRank is the externally supplied influence metric (0 if unavailable).
	OpenRank float64 `json:"open_rank,omitempty"`

	// Followers is the follower count.
	Followers int `json:"followers"`

	// Following is the following count.
	Following int `json:"following"`

	// PublicRepos is the public repository count.
	PublicRepos int `json:"public_repos"`

	// RecentlyActiveRepos counts repositories updated within the last year.
	RecentlyActiveRepos int `json:"recently_active_repos,omitempty"`

	// AvgRepoStars is the mean stargazer count across the user's repositories.
	AvgRepoStars float64 `json:"avg_repo_stars,omitempty"`

	// AvgRepoForks is the mean fork count across the user's repositories.
	AvgRepoForks float64 `json:"avg_repo_forks,omitempty"`

	// LanguageShares maps language name to the share of the user's code
	// written in it. Shares sum to 1 when any language is known.
	LanguageShares map[string]float64 `json:"language_shares,omitempty"`

	// Topics is the union of topic tags across the user's repositories.
	Topics []string `json:"topics,omitempty"`
}

// RepoMetrics holds the raw signals for a repository.
// Absent fields are zero and score as neutral contributions.
type RepoMetrics struct {
	// OpenRank is the externally supplied influence metric (0 if unavailable).
	OpenRank float64 `json:"open_rank,omitempty"`

	// Stars is the stargazer count.
	Stars int `json:"stars"`

	// Forks is the fork count.
	Forks int `json:"forks"`

	// Watchers is the subscriber count.
	Watchers int `json:"watchers"`

	// Size is the repository size in KB.
	Size int `json:"size,omitempty"`

	// PrimaryLanguage is the dominant language, empty if unknown.
	PrimaryLanguage string `json:"primary_language,omitempty"`

	// LanguageShares maps language name to its share of the codebase.
	LanguageShares map[string]float64 `json:"language_shares,omitempty"`

	// Topics is the repository's topic tags.
	Topics []string `json:"topics,omitempty"`

	// LastUpdated is the most recent push or update time.
	LastUpdated time.Time `json:"last_updated,omitempty"`

	// Contributors lists contributor logins (first page is sufficient).
	Contributors []string `json:"contributors,omitempty"`
}

// Entity is a user or repository with its metrics. Exactly one of User and
// Repo is set, matching Kind. Entities are created fresh per request and
// never mutated after construction.
type Entity struct {
	// ID is the login for users and "owner/name" for repositories.
	ID string `json:"id"`

	// Kind selects which metrics field is populated.
	Kind EntityKind `json:"kind"`

	// User is set when Kind is KindUser.
	User *UserMetrics `json:"user,omitempty"`

	// Repo is set when Kind is KindRepo.
	Repo *RepoMetrics `json:"repo,omitempty"`
}

// LanguageShares returns the entity's language distribution, nil when unknown.
func (e *Entity) LanguageShares() map[string]float64 {
	switch {
	case e.User != nil:
		return e.User.LanguageShares
	case e.Repo != nil:
		return e.Repo.LanguageShares
	default:
		return nil
	}
}

// Topics returns the entity's topic tags, nil when unknown.
func (e *Entity) Topics() []string {
	switch {
	case e.User != nil:
		return e.User.Topics
	case e.Repo != nil:
		return e.Repo.Topics
	default:
		return nil
	}
}

// ScaleTier buckets a scale score into a maturity level.
type ScaleTier int

const (
	// TierNovice is score < 25.
	TierNovice ScaleTier = iota
	// TierIntermediate is score in [25, 30).
	TierIntermediate
	// TierAdvanced is score in [30, 35).
	TierAdvanced
	// TierExpert is score >= 35.
	TierExpert
)

// String returns a human-readable tier name.
func (t ScaleTier) String() string {
	switch t {
	case TierNovice:
		return "novice"
	case TierIntermediate:
		return "intermediate"
	case TierAdvanced:
		return "advanced"
	case TierExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// ScaleResult is the bounded maturity/influence score for one entity.
type ScaleResult struct {
	// Score is in [20, 40]. Entities with no usable metrics score 20.
	Score float64 `json:"score"`

	// Tier is derived from Score via fixed thresholds.
	Tier ScaleTier `json:"tier"`
}

// SimilarityResult is the weighted similarity between an anchor and a candidate.
type SimilarityResult struct {
	// Score is the combined similarity in [0, 1].
	Score float64 `json:"score"`

	// Factors is the per-factor breakdown (e.g. "language", "topic").
	Factors map[string]float64 `json:"factors,omitempty"`
}

// SourceTier identifies the candidate source a pool member came from.
type SourceTier int

const (
	// SourceDirect is entities directly linked to the anchor.
	SourceDirect SourceTier = iota
	// SourceTopical is entities matching the anchor's topics or languages.
	SourceTopical
	// SourceTrending is globally popular entities, used for exploration.
	SourceTrending
)

// String returns a human-readable source tier name.
func (s SourceTier) String() string {
	switch s {
	case SourceDirect:
		return "direct"
	case SourceTopical:
		return "topical"
	case SourceTrending:
		return "trending"
	default:
		return "unknown"
	}
}

// Weight returns the pool share the tier is entitled to.
func (s SourceTier) Weight() float64 {
	switch s {
	case SourceDirect:
		return 0.5
	case SourceTopical:
		return 0.3
	case SourceTrending:
		return 0.2
	default:
		return 0
	}
}

// CandidateRef is a pool member with its provenance. IDs are unique within a
// pool; the first tier to produce an id wins provenance.
type CandidateRef struct {
	// Entity is the candidate. List endpoints may return partial metrics;
	// the engine hydrates candidates before scoring.
	Entity Entity `json:"entity"`

	// Source is the tier the candidate was discovered through.
	Source SourceTier `json:"source"`

	// SourceWeight is Source.Weight(), kept for diagnostics.
	SourceWeight float64 `json:"source_weight"`
}

// NodeType classifies a node for the output graph.
type NodeType int

const (
	// NodeCenter is the anchor. Exactly one per result.
	NodeCenter NodeType = iota
	// NodeMentor is a candidate with scale score >= 33.
	NodeMentor
	// NodePeer is a candidate with scale score in [25, 33).
	NodePeer
	// NodeFloating is a candidate with scale score < 25, or an overflow
	// node kept only for visual density.
	NodeFloating
)

// String returns the wire name for the node type.
func (t NodeType) String() string {
	switch t {
	case NodeCenter:
		return "center"
	case NodeMentor:
		return "mentor"
	case NodePeer:
		return "peer"
	case NodeFloating:
		return "floating"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the node type as its wire name.
func (t NodeType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Node is one entry in the recommendation graph.
type Node struct {
	// ID is the entity id.
	ID string `json:"id"`

	// Kind is the entity kind ("user" or "repo" on the wire).
	Kind string `json:"kind"`

	// Type is center/mentor/peer/floating.
	Type NodeType `json:"nodeType"`

	// Rank is the selection rank assigned before the display shuffle:
	// mentors by similarity, then peers, then floating. Ranks are
	// contiguous from 0. Edge emission and count truncation follow this
	// order, never the shuffled display order.
	Rank int `json:"rank"`

	// Scale is the node's scale result.
	Scale ScaleResult `json:"scale"`

	// Similarity is the similarity to the center, zero-valued for the
	// center itself.
	Similarity SimilarityResult `json:"similarity"`

	// Source is the provenance tier, empty for the center.
	Source string `json:"source,omitempty"`
}

// Edge connects the center to a recommended node. Weight is the similarity.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Request describes one recommendation run.
type Request struct {
	// AnchorKind is the kind of the anchor entity.
	AnchorKind EntityKind `json:"anchor_kind"`

	// AnchorID is the anchor's id (login or "owner/name").
	AnchorID string `json:"anchor_id"`

	// TargetKind is the kind of entity to recommend.
	TargetKind EntityKind `json:"target_kind"`

	// Count caps the number of returned nodes. Zero means the stratifier's
	// bucket bounds decide.
	Count int `json:"count,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the assembled recommendation graph.
type Response struct {
	// Center identifies the anchor node.
	Center Center `json:"center"`

	// Nodes is the selected node list, center excluded.
	Nodes []Node `json:"nodes"`

	// Links is the emitted edge list.
	Links []Edge `json:"links"`

	// PoolSize is the number of candidates considered before stratification.
	PoolSize int `json:"pool_size"`

	// LatencyMS is the total pipeline latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}

// Center identifies the anchor in a response.
type Center struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// MetricsProvider is the upstream data source the engine consumes. It is
// implemented by the provider package against the hosting-platform and
// ecosystem-metrics APIs, and by mocks in tests. All methods honor context
// cancellation and return typed provider failures.
type MetricsProvider interface {
	// GetUser returns a fully hydrated user entity.
	GetUser(ctx context.Context, login string) (*Entity, error)

	// GetRepo returns a fully hydrated repository entity.
	GetRepo(ctx context.Context, fullName string) (*Entity, error)

	// GetFollowers returns users following the given user.
	GetFollowers(ctx context.Context, login string, limit int) ([]Entity, error)

	// GetFollowing returns users the given user follows.
	GetFollowing(ctx context.Context, login string, limit int) ([]Entity, error)

	// GetStarred returns repositories the user has starred.
	GetStarred(ctx context.Context, login string, limit int) ([]Entity, error)

	// GetUserRepos returns repositories the user owns.
	GetUserRepos(ctx context.Context, login string, limit int) ([]Entity, error)

	// GetOrgRepos returns sibling repositories under the same owner.
	GetOrgRepos(ctx context.Context, org string, limit int) ([]Entity, error)

	// SearchByTopic returns entities of the requested kind matching any of
	// the given topics.
	SearchByTopic(ctx context.Context, topics []string, kind EntityKind, limit int) ([]Entity, error)

	// SearchByLanguage returns entities of the requested kind dominated by
	// the given language.
	SearchByLanguage(ctx context.Context, language string, kind EntityKind, limit int) ([]Entity, error)

	// GetTrending returns globally popular entities of the requested kind.
	GetTrending(ctx context.Context, kind EntityKind, limit int) ([]Entity, error)

	// GetContributors returns the contributors of a repository.
	GetContributors(ctx context.Context, fullName string, limit int) ([]Entity, error)
}
