// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package api

// Algorithm explanations served by GET /api/explain. The detailed variants
// mirror the formulas the engine actually computes; keep them in sync with
// internal/recommend when scoring changes.

var explanations = map[string]map[string]string{
	"user": {
		"simple": "A user's scale score blends their OpenRank influence, follower reach, " +
			"repository quality and recent activity into a single 20-40 score. " +
			"Higher scores place the user in the mentor ring of the graph.",
		"detailed": "User scale score, range [20, 40]:\n\n" +
			"  openrank   = min(1, OpenRank / 10)\n" +
			"  social     = min(1, ln(followers + 1) / ln(10^4))\n" +
			"  quality    = min(1, (ln(avgStars + 1)/ln(10^3) + ln(avgForks + 1)/ln(500)) / 2)\n" +
			"  activity   = min(1, ln(repos + 1)/ln(10^2)) * recentRepos/repos\n\n" +
			"  score01 = 0.4*openrank + 0.3*social + 0.15*quality + 0.15*activity\n" +
			"  scale   = 20 + 20 * score01\n\n" +
			"Tiers: novice < 25, intermediate [25, 30), advanced [30, 35), expert >= 35.",
	},
	"repo": {
		"simple": "A repository's scale score starts from its OpenRank value when available, " +
			"with star and fork bonuses, or falls back to a star/fork/watcher blend. " +
			"Repositories dormant for over a year keep only half of their score above the floor.",
		"detailed": "Repository scale score, range [20, 40]:\n\n" +
			"With OpenRank:\n" +
			"  variable = 20*OpenRank + 20*0.2*min(1, ln(stars+1)/ln(10^4)) + 20*0.1*min(1, ln(forks+1)/ln(10^3))\n\n" +
			"Without OpenRank:\n" +
			"  variable = 20 * (0.5*star + 0.3*fork + 0.2*watcher), each log-normalized\n\n" +
			"If the repository was not updated within the last year the variable part is\n" +
			"multiplied by 0.5. Final scale = min(40, 20 + variable).",
	},
	"user-user": {
		"simple": "Two developers are similar when they write the same languages, tag their " +
			"work with the same topics, and operate at a comparable activity level.",
		"detailed": "User-user similarity, range [0, 1], default weights 30/30/40:\n\n" +
			"  language = cosine similarity of per-language code-share vectors\n" +
			"  topic    = Jaccard similarity of topic-tag sets\n" +
			"  activity = 1 - clamp(0.4*d_followers + 0.3*d_following + 0.3*d_repos)\n" +
			"             with each delta log-normalized (bases 10^4, 10^3, 10^2)\n\n" +
			"  score = 0.3*language + 0.3*topic + 0.4*activity",
	},
	"user-repo": {
		"simple": "A repository fits a developer when it is written in a language they use, " +
			"shares topics with their work, and is popular and actively maintained. " +
			"This measure is directional: it scores the repository for the user.",
		"detailed": "User-repository similarity, range [0, 1], default weights 40/40/20:\n\n" +
			"  language = share of the user's code in the repository's primary language\n" +
			"  topic    = Jaccard similarity of topic-tag sets\n" +
			"  appeal   = clamp(0.7*log-stars + 0.3*log-forks) * (1.2 if active else 0.8)\n\n" +
			"  score = 0.4*language + 0.4*topic + 0.2*appeal",
	},
	"repo-repo": {
		"simple": "Two repositories are similar when they share languages, topics and " +
			"contributors, and sit at a comparable scale and freshness.",
		"detailed": "Repository-repository similarity, range [0, 1], default weights 30/40/20/10:\n\n" +
			"  language    = cosine similarity of language byte-share vectors\n" +
			"  topic       = Jaccard similarity of topic-tag sets\n" +
			"  contributor = Jaccard similarity of contributor sets\n" +
			"  closeness   = 1 - clamp(0.4*d_stars + 0.3*d_forks + 0.3*d_updated)\n\n" +
			"  score = 0.3*language + 0.4*topic + 0.2*contributor + 0.1*closeness\n\n" +
			"Symmetric by construction: sim(A, B) == sim(B, A).",
	},
}

// explanationFor returns the explanation text for a subject and mode.
// Validation guarantees both keys exist.
func explanationFor(subject, mode string) string {
	return explanations[subject][mode]
}
