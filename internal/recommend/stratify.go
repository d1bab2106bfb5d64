// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"math/rand"
	"sort"
	"time"
)

// ScoredCandidate is a pool member with its scale and similarity results,
// ready for stratification.
type ScoredCandidate struct {
	Ref        CandidateRef
	Scale      ScaleResult
	Similarity SimilarityResult
}

// Stratifier classifies scored candidates into mentor/peer/floating buckets,
// ranks within each bucket by similarity, bounds bucket sizes, and shuffles
// the survivors for layout variety. Selection happens strictly before the
// shuffle; scores and node types are never re-derived from shuffled order.
type Stratifier struct {
	cfg *Config
}

// NewStratifier builds a stratifier.
func NewStratifier(cfg *Config) *Stratifier {
	return &Stratifier{cfg: cfg}
}

// NodeTypeOf maps a scale score to the output node type. Mentors are >=33,
// peers [25, 33), floating below 25.
func NodeTypeOf(score float64) NodeType {
	switch {
	case score >= 33:
		return NodeMentor
	case score >= 25:
		return NodePeer
	default:
		return NodeFloating
	}
}

// Stratify produces the bounded, tiered node list for a candidate pool.
// Nodes come back in mentor, peer, floating order with each bucket
// internally shuffled.
func (s *Stratifier) Stratify(candidates []ScoredCandidate, targetKind EntityKind) []Node {
	type indexed struct {
		ScoredCandidate
		order int
	}

	buckets := map[NodeType][]indexed{}
	for i, c := range candidates {
		nt := NodeTypeOf(c.Scale.Score)
		buckets[nt] = append(buckets[nt], indexed{ScoredCandidate: c, order: i})
	}

	bounds := s.cfg.bucketBounds(targetKind)
	limits := map[NodeType]int{
		NodeMentor:   bounds.MentorMax,
		NodePeer:     bounds.PeerMax,
		NodeFloating: bounds.FloatingMax,
	}

	rng := s.newRand()
	var nodes []Node
	rank := 0
	for _, nt := range []NodeType{NodeMentor, NodePeer, NodeFloating} {
		bucket := buckets[nt]

		// Rank by similarity, ties by source-tier priority then pool order.
		sort.Slice(bucket, func(i, j int) bool {
			a, b := bucket[i], bucket[j]
			if a.Similarity.Score != b.Similarity.Score {
				return a.Similarity.Score > b.Similarity.Score
			}
			if a.Ref.Source != b.Ref.Source {
				return a.Ref.Source < b.Ref.Source
			}
			return a.order < b.order
		})

		if limit := limits[nt]; len(bucket) > limit {
			bucket = bucket[:limit]
		}

		// Ranks are fixed before the shuffle; only display order varies.
		selected := make([]Node, 0, len(bucket))
		for _, c := range bucket {
			selected = append(selected, Node{
				ID:         c.Ref.Entity.ID,
				Kind:       c.Ref.Entity.Kind.String(),
				Type:       nt,
				Rank:       rank,
				Scale:      c.Scale,
				Similarity: c.Similarity,
				Source:     c.Ref.Source.String(),
			})
			rank++
		}

		rng.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
		nodes = append(nodes, selected...)
	}
	return nodes
}

// newRand builds the shuffle source. Seed 0 seeds from the clock: floating
// order is intentionally randomized between identical calls.
func (s *Stratifier) newRand() *rand.Rand {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
