// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"math"
	"time"
)

// SimilarityScorer computes weighted, kind-specific similarity between an
// anchor and a candidate. Scores are clamped to [0, 1] and never fail: a
// missing factor (empty language map, no topics) contributes 0.
//
// User-user and repo-repo similarity are symmetric. User-repo similarity is
// directional by design: it measures how well a repository fits a user's
// profile, so sim(user, repo) need not equal sim(repo, user).
type SimilarityScorer struct {
	userUser UserUserWeights
	userRepo UserRepoWeights
	repoRepo RepoRepoWeights
	window   time.Duration

	now func() time.Time
}

// NewSimilarityScorer builds a scorer. Weight profiles are normalized once at
// construction so callers can pass raw (unnormalized) profiles.
func NewSimilarityScorer(cfg *Config) *SimilarityScorer {
	return &SimilarityScorer{
		userUser: cfg.UserUser.Normalize(),
		userRepo: cfg.UserRepo.Normalize(),
		repoRepo: cfg.RepoRepo.Normalize(),
		window:   cfg.Scale.ActivityWindow,
		now:      time.Now,
	}
}

// Score computes the similarity between anchor and candidate, dispatching on
// the kind pairing. A repo anchor scored against a user candidate reuses the
// user-repo formula with the roles swapped.
func (s *SimilarityScorer) Score(anchor, candidate *Entity) SimilarityResult {
	switch {
	case anchor.Kind == KindUser && candidate.Kind == KindUser:
		return s.userToUser(anchor, candidate)
	case anchor.Kind == KindRepo && candidate.Kind == KindRepo:
		return s.repoToRepo(anchor, candidate)
	case anchor.Kind == KindUser && candidate.Kind == KindRepo:
		return s.userToRepo(anchor, candidate)
	default:
		return s.userToRepo(candidate, anchor)
	}
}

func (s *SimilarityScorer) userToUser(a, b *Entity) SimilarityResult {
	lang := cosine(a.LanguageShares(), b.LanguageShares())
	topic := jaccard(a.Topics(), b.Topics())

	var activity float64
	if a.User != nil && b.User != nil {
		activity = activityCloseness(a.User, b.User)
	}

	w := s.userUser
	score := w.Language*lang + w.Topic*topic + w.Activity*activity
	return SimilarityResult{
		Score: clamp(score, 0, 1),
		Factors: map[string]float64{
			"language": lang,
			"topic":    topic,
			"activity": activity,
		},
	}
}

// activityCloseness compares two users' follower, following and repository
// counts on log scales with bases 10^4, 10^3 and 10^2 respectively, so a 100
// vs 150 follower gap weighs far more than 10100 vs 10150.
func activityCloseness(a, b *UserMetrics) float64 {
	df := math.Abs(logNorm(float64(a.Followers), 10000) - logNorm(float64(b.Followers), 10000))
	dg := math.Abs(logNorm(float64(a.Following), 1000) - logNorm(float64(b.Following), 1000))
	dr := math.Abs(logNorm(float64(a.PublicRepos), 100) - logNorm(float64(b.PublicRepos), 100))
	return 1 - clamp(0.4*df+0.3*dg+0.3*dr, 0, 1)
}

func (s *SimilarityScorer) userToRepo(user, repo *Entity) SimilarityResult {
	var lang float64
	if user.User != nil && repo.Repo != nil && repo.Repo.PrimaryLanguage != "" {
		lang = user.User.LanguageShares[repo.Repo.PrimaryLanguage]
	}

	topic := jaccard(user.Topics(), repo.Topics())

	var scaleRecency float64
	if repo.Repo != nil {
		scaleRecency = s.repoAppeal(repo.Repo)
	}

	w := s.userRepo
	score := w.Language*lang + w.Topic*topic + w.ScaleRecency*scaleRecency
	return SimilarityResult{
		Score: clamp(score, 0, 1),
		Factors: map[string]float64{
			"language":      lang,
			"topic":         topic,
			"scale_recency": scaleRecency,
		},
	}
}

// repoAppeal scores a repository's popularity-and-freshness on [0, 1]. An
// actively maintained repository gets a 1.2x boost, a dormant one a 0.8x cut,
// with the product clamped back to 1.
func (s *SimilarityScorer) repoAppeal(r *RepoMetrics) float64 {
	popularity := clamp(0.7*logNorm(float64(r.Stars), 10000)+0.3*logNorm(float64(r.Forks), 1000), 0, 1)
	mult := 0.8
	if !r.LastUpdated.IsZero() && s.now().Sub(r.LastUpdated) <= s.window {
		mult = 1.2
	}
	return clamp(popularity*mult, 0, 1)
}

func (s *SimilarityScorer) repoToRepo(a, b *Entity) SimilarityResult {
	lang := cosine(a.LanguageShares(), b.LanguageShares())
	topic := jaccard(a.Topics(), b.Topics())

	var contrib, sizeRecency float64
	if a.Repo != nil && b.Repo != nil {
		contrib = jaccard(a.Repo.Contributors, b.Repo.Contributors)
		sizeRecency = s.sizeRecencyCloseness(a.Repo, b.Repo)
	}

	w := s.repoRepo
	score := w.Language*lang + w.Topic*topic + w.Contributor*contrib + w.SizeRecency*sizeRecency
	return SimilarityResult{
		Score: clamp(score, 0, 1),
		Factors: map[string]float64{
			"language":     lang,
			"topic":        topic,
			"contributor":  contrib,
			"size_recency": sizeRecency,
		},
	}
}

// sizeRecencyCloseness compares two repositories' popularity and freshness.
// Star and fork counts are compared on log scales; update times are compared
// as a fraction of the activity window. All three deltas are symmetric in
// their arguments, keeping repo-repo similarity symmetric overall.
func (s *SimilarityScorer) sizeRecencyCloseness(a, b *RepoMetrics) float64 {
	ds := math.Abs(logNorm(float64(a.Stars), 10000) - logNorm(float64(b.Stars), 10000))
	df := math.Abs(logNorm(float64(a.Forks), 1000) - logNorm(float64(b.Forks), 1000))

	var dt float64
	switch {
	case a.LastUpdated.IsZero() && b.LastUpdated.IsZero():
		dt = 0
	case a.LastUpdated.IsZero() || b.LastUpdated.IsZero():
		dt = 1
	default:
		gap := a.LastUpdated.Sub(b.LastUpdated)
		if gap < 0 {
			gap = -gap
		}
		dt = math.Min(1, float64(gap)/float64(s.window))
	}

	return 1 - clamp(0.4*ds+0.3*df+0.3*dt, 0, 1)
}

// cosine is the cosine similarity of two sparse share vectors. Either vector
// empty yields 0.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for k, av := range a {
		na += av * av
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// jaccard is |A∩B| / |A∪B| over two tag lists. Duplicates within a list are
// collapsed; an empty union yields 0.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]uint8, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	var inter int
	for _, m := range set {
		if m == 3 {
			inter++
		}
	}
	if len(set) == 0 {
		return 0
	}
	return float64(inter) / float64(len(set))
}
