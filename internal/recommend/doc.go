// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package recommend implements the recommendation core of OpenChain.
//
// # Pipeline
//
// Each request runs a five-stage pipeline:
//
//   - Scale scoring: raw metrics to a bounded [20, 40] maturity score
//   - Pool assembly: three weighted candidate sources fetched concurrently
//     (direct links 50%, topical matches 30%, trending 20%)
//   - Similarity scoring: kind-specific multi-factor similarity in [0, 1]
//   - Stratification: mentor/peer/floating buckets, ranked and bounded
//   - Edge emission: the center connects to the K highest-ranked
//     mentor/peer nodes
//
// # Failure Model
//
// The pipeline favors availability over completeness. A candidate source
// that fails or times out degrades to an empty sub-pool; missing metric
// fields score as neutral contributions; only anchor-fetch failures and a
// fully empty result abort a request. All failures crossing the package
// boundary are typed *Error values with stable machine-readable kinds.
//
// # Determinism
//
// Identical inputs against identical upstream snapshots produce the same
// mentor/peer membership, similarity values and edge set. Display order
// within each bucket is shuffled for layout variety; selection ranks are
// assigned before the shuffle, and edges and count truncation follow those
// ranks, so the shuffle only ever affects presentation. Set Config.Seed to
// a nonzero value to make the shuffle reproducible in tests.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, provider, logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    AnchorKind: recommend.KindUser,
//	    AnchorID:   "torvalds",
//	    TargetKind: recommend.KindRepo,
//	})
//
// The engine holds no cross-request mutable state and is safe for
// concurrent use.
package recommend
