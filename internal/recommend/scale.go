// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"math"
	"time"
)

// ScaleScorer converts raw entity metrics into a bounded maturity score in
// [20, 40] and a discrete tier. Scoring never fails: absent metrics contribute
// zero and an entity with no usable signal lands on the floor score of 20.
type ScaleScorer struct {
	cfg ScaleConfig

	// now is injectable for activity-window tests.
	now func() time.Time
}

// NewScaleScorer builds a scorer with the given parameters.
func NewScaleScorer(cfg ScaleConfig) *ScaleScorer {
	return &ScaleScorer{cfg: cfg, now: time.Now}
}

// Score computes the scale result for an entity.
func (s *ScaleScorer) Score(e *Entity) ScaleResult {
	var score float64
	switch {
	case e.User != nil:
		score = s.scoreUser(e.User)
	case e.Repo != nil:
		score = s.scoreRepo(e.Repo)
	default:
		score = scaleFloor
	}
	score = clamp(score, scaleFloor, scaleCeil)
	return ScaleResult{Score: score, Tier: TierOf(score)}
}

const (
	scaleFloor = 20.0
	scaleCeil  = 40.0
)

// scoreUser blends openrank, social reach, repository quality and recent
// activity into a [0,1] score, then maps it onto [20,40].
func (s *ScaleScorer) scoreUser(u *UserMetrics) float64 {
	or := math.Min(1, u.OpenRank/10)
	social := logNorm(float64(u.Followers), 10000)

	var quality float64
	if u.PublicRepos > 0 {
		quality = math.Min(1, (logNorm(u.AvgRepoStars, 1000)+logNorm(u.AvgRepoForks, 500))/2)
	}

	var activity float64
	if u.PublicRepos > 0 {
		ratio := float64(u.RecentlyActiveRepos) / float64(u.PublicRepos)
		activity = logNorm(float64(u.PublicRepos), 100) * ratio
	}

	score01 := 0.4*or + 0.3*social + 0.15*quality + 0.15*activity
	return scaleFloor + score01*(scaleCeil-scaleFloor)
}

// scoreRepo scores a repository. With openrank available the rank dominates
// and star/fork counts add bonuses; without it the score falls back to a pure
// popularity blend. The recency multiplier dampens only the variable portion
// above the floor, so a dormant repository still clears 20.
func (s *ScaleScorer) scoreRepo(r *RepoMetrics) float64 {
	var variable float64
	if r.OpenRank > 0 {
		variable = r.OpenRank * (scaleCeil - scaleFloor)
		variable += logNorm(float64(r.Stars), 10000) * 0.2 * (scaleCeil - scaleFloor)
		variable += logNorm(float64(r.Forks), 1000) * 0.1 * (scaleCeil - scaleFloor)
	} else {
		star := logNorm(float64(r.Stars), 10000)
		fork := logNorm(float64(r.Forks), 1000)
		watch := logNorm(float64(r.Watchers), 1000)
		variable = (star*0.5 + fork*0.3 + watch*0.2) * (scaleCeil - scaleFloor)
	}

	if !s.isActive(r.LastUpdated) {
		variable *= s.cfg.InactiveMultiplier
	}
	return scaleFloor + variable
}

// isActive reports whether an update time falls inside the activity window.
// The zero time (update time unknown) counts as inactive.
func (s *ScaleScorer) isActive(updated time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return s.now().Sub(updated) <= s.cfg.ActivityWindow
}

// TierOf maps a scale score to its tier. Thresholds are fixed and
// non-overlapping: novice <25, intermediate [25,30), advanced [30,35),
// expert >=35.
func TierOf(score float64) ScaleTier {
	switch {
	case score >= 35:
		return TierExpert
	case score >= 30:
		return TierAdvanced
	case score >= 25:
		return TierIntermediate
	default:
		return TierNovice
	}
}

// logNorm is min(1, ln(x+1)/ln(base)), the shared log normalization used by
// both scale and similarity scoring. Non-positive inputs normalize to 0.
func logNorm(x, base float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Min(1, math.Log(x+1)/math.Log(base))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
