// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package provider implements the engine's metrics provider against the
// GitHub REST API, enriched with OpenDigger openrank values.
//
// Entity hydration (GetUser, GetRepo) sits behind a ristretto read-through
// cache so repeated scoring of popular entities does not burn API quota.
// List operations are not cached; their results change too often to be worth
// the staleness.
package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/Frank-whw/OpenChain/internal/metrics"
	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// GitHub REST payload shapes, limited to the fields the engine consumes.
type ghUser struct {
	Login       string `json:"login"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"public_repos"`
}

type ghRepo struct {
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	Stars     int       `json:"stargazers_count"`
	Forks     int       `json:"forks_count"`
	Watchers  int       `json:"watchers_count"`
	Size      int       `json:"size"`
	Language  string    `json:"language"`
	Topics    []string  `json:"topics"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ghSearchRepos struct {
	Items []ghRepo `json:"items"`
}

type ghSearchUsers struct {
	Items []ghUser `json:"items"`
}

// Provider implements recommend.MetricsProvider against GitHub + OpenDigger.
type Provider struct {
	cfg   Config
	gh    *githubClient
	rank  *openDiggerClient
	cache *ristretto.Cache
	log   zerolog.Logger
}

// Statically assert the interface.
var _ recommend.MetricsProvider = (*Provider)(nil)

// New builds a provider.
func New(cfg Config, log zerolog.Logger) (*Provider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.CacheMaxCost * 10,
		MaxCost:     cfg.CacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create metrics cache: %w", err)
	}

	return &Provider{
		cfg:   cfg,
		gh:    newGitHubClient(cfg, log),
		rank:  newOpenDiggerClient(cfg, log),
		cache: cache,
		log:   log.With().Str("component", "provider").Logger(),
	}, nil
}

// Close releases the cache.
func (p *Provider) Close() {
	p.cache.Close()
}

// cached runs fetch through the read-through cache.
func (p *Provider) cached(key string, fetch func() (*recommend.Entity, error)) (*recommend.Entity, error) {
	if v, ok := p.cache.Get(key); ok {
		if e, ok := v.(*recommend.Entity); ok {
			metrics.CacheHits.Inc()
			return e, nil
		}
	}
	metrics.CacheMisses.Inc()

	e, err := fetch()
	if err != nil {
		return nil, err
	}
	p.cache.SetWithTTL(key, e, 1, p.cfg.CacheTTL)
	return e, nil
}

// GetUser returns a fully hydrated user entity. The profile fetch is
// required; repository-derived signals (language shares, topics, activity)
// and openrank degrade to zero values when their fetches fail.
func (p *Provider) GetUser(ctx context.Context, login string) (*recommend.Entity, error) {
	return p.cached("user:"+login, func() (*recommend.Entity, error) {
		var u ghUser
		if err := p.gh.getJSON(ctx, "get_user", "/users/"+url.PathEscape(login), nil, &u); err != nil {
			return nil, err
		}

		m := &recommend.UserMetrics{
			Followers:   u.Followers,
			Following:   u.Following,
			PublicRepos: u.PublicRepos,
			OpenRank:    p.rank.userOpenRank(ctx, login),
		}

		var repos []ghRepo
		q := url.Values{"per_page": {strconv.Itoa(p.cfg.PageSize)}, "sort": {"updated"}}
		if err := p.gh.getJSON(ctx, "get_user_repos", "/users/"+url.PathEscape(login)+"/repos", q, &repos); err != nil {
			p.log.Debug().Err(err).Str("login", login).Msg("user repos unavailable, profile-only metrics")
		} else {
			fillRepoDerivedMetrics(m, repos)
		}

		return &recommend.Entity{ID: login, Kind: recommend.KindUser, User: m}, nil
	})
}

// fillRepoDerivedMetrics computes language shares, topics, average repo
// popularity and recent activity from a user's repository list.
func fillRepoDerivedMetrics(m *recommend.UserMetrics, repos []ghRepo) {
	if len(repos) == 0 {
		return
	}

	langCounts := map[string]float64{}
	topics := map[string]struct{}{}
	var totalStars, totalForks float64
	var withLanguage int
	cutoff := time.Now().Add(-365 * 24 * time.Hour)

	for _, r := range repos {
		if r.Language != "" {
			langCounts[r.Language]++
			withLanguage++
		}
		for _, t := range r.Topics {
			topics[t] = struct{}{}
		}
		totalStars += float64(r.Stars)
		totalForks += float64(r.Forks)
		if r.UpdatedAt.After(cutoff) {
			m.RecentlyActiveRepos++
		}
	}

	if withLanguage > 0 {
		m.LanguageShares = make(map[string]float64, len(langCounts))
		for lang, n := range langCounts {
			m.LanguageShares[lang] = n / float64(withLanguage)
		}
	}
	if len(topics) > 0 {
		m.Topics = make([]string, 0, len(topics))
		for t := range topics {
			m.Topics = append(m.Topics, t)
		}
	}
	m.AvgRepoStars = totalStars / float64(len(repos))
	m.AvgRepoForks = totalForks / float64(len(repos))
}

// GetRepo returns a fully hydrated repository entity. The repo fetch is
// required; language byte shares, contributors and openrank are enrichment
// and degrade to empty values.
func (p *Provider) GetRepo(ctx context.Context, fullName string) (*recommend.Entity, error) {
	return p.cached("repo:"+fullName, func() (*recommend.Entity, error) {
		path := "/repos/" + escapeFullName(fullName)

		var r ghRepo
		if err := p.gh.getJSON(ctx, "get_repo", path, nil, &r); err != nil {
			return nil, err
		}

		m := &recommend.RepoMetrics{
			Stars:           r.Stars,
			Forks:           r.Forks,
			Watchers:        r.Watchers,
			Size:            r.Size,
			PrimaryLanguage: r.Language,
			Topics:          r.Topics,
			LastUpdated:     r.UpdatedAt,
			OpenRank:        p.rank.repoOpenRank(ctx, fullName),
		}

		var langBytes map[string]float64
		if err := p.gh.getJSON(ctx, "get_repo_languages", path+"/languages", nil, &langBytes); err == nil {
			m.LanguageShares = normalizeShares(langBytes)
		}

		var contributors []ghUser
		q := url.Values{"per_page": {strconv.Itoa(p.cfg.PageSize)}}
		if err := p.gh.getJSON(ctx, "get_contributors", path+"/contributors", q, &contributors); err == nil {
			for _, c := range contributors {
				m.Contributors = append(m.Contributors, c.Login)
			}
		}

		return &recommend.Entity{ID: fullName, Kind: recommend.KindRepo, Repo: m}, nil
	})
}

// normalizeShares converts byte counts per language into shares summing to 1.
func normalizeShares(byBytes map[string]float64) map[string]float64 {
	var total float64
	for _, b := range byBytes {
		total += b
	}
	if total == 0 {
		return nil
	}
	shares := make(map[string]float64, len(byBytes))
	for lang, b := range byBytes {
		shares[lang] = b / total
	}
	return shares
}

// GetFollowers returns users following the given user. List payloads carry
// logins only; the engine hydrates candidates it keeps.
func (p *Provider) GetFollowers(ctx context.Context, login string, limit int) ([]recommend.Entity, error) {
	return p.listUsers(ctx, "get_followers", "/users/"+url.PathEscape(login)+"/followers", limit)
}

// GetFollowing returns users the given user follows.
func (p *Provider) GetFollowing(ctx context.Context, login string, limit int) ([]recommend.Entity, error) {
	return p.listUsers(ctx, "get_following", "/users/"+url.PathEscape(login)+"/following", limit)
}

// GetStarred returns repositories the user has starred. Starred payloads are
// full repo objects, so these entities arrive pre-hydrated.
func (p *Provider) GetStarred(ctx context.Context, login string, limit int) ([]recommend.Entity, error) {
	return p.listRepos(ctx, "get_starred", "/users/"+url.PathEscape(login)+"/starred", limit)
}

// GetUserRepos returns repositories the user owns.
func (p *Provider) GetUserRepos(ctx context.Context, login string, limit int) ([]recommend.Entity, error) {
	return p.listRepos(ctx, "get_user_repos", "/users/"+url.PathEscape(login)+"/repos", limit)
}

// GetOrgRepos returns sibling repositories under an owner. The /users form
// works for both organizations and personal accounts.
func (p *Provider) GetOrgRepos(ctx context.Context, org string, limit int) ([]recommend.Entity, error) {
	return p.listRepos(ctx, "get_org_repos", "/users/"+url.PathEscape(org)+"/repos", limit)
}

// SearchByTopic returns entities matching any of the given topics. User
// search has no topic qualifier, so topics degrade to keyword terms there.
func (p *Provider) SearchByTopic(ctx context.Context, topics []string, kind recommend.EntityKind, limit int) ([]recommend.Entity, error) {
	if len(topics) > 3 {
		topics = topics[:3] // search quals beyond a few add noise, not recall
	}

	if kind == recommend.KindRepo {
		quals := make([]string, len(topics))
		for i, t := range topics {
			quals[i] = "topic:" + t
		}
		return p.searchRepos(ctx, "search_by_topic", strings.Join(quals, " "), limit)
	}
	return p.searchUsers(ctx, "search_by_topic", strings.Join(topics, " "), limit)
}

// SearchByLanguage returns entities dominated by the given language.
func (p *Provider) SearchByLanguage(ctx context.Context, language string, kind recommend.EntityKind, limit int) ([]recommend.Entity, error) {
	if kind == recommend.KindRepo {
		return p.searchRepos(ctx, "search_by_language", "language:"+language+" stars:>100", limit)
	}
	return p.searchUsers(ctx, "search_by_language", "language:"+language, limit)
}

// GetTrending returns globally popular entities. GitHub has no trending API,
// so popularity-ordered search stands in for it.
func (p *Provider) GetTrending(ctx context.Context, kind recommend.EntityKind, limit int) ([]recommend.Entity, error) {
	if kind == recommend.KindRepo {
		return p.searchRepos(ctx, "get_trending", "stars:>10000", limit)
	}
	return p.searchUsers(ctx, "get_trending", "followers:>1000", limit)
}

// GetContributors returns the contributors of a repository.
func (p *Provider) GetContributors(ctx context.Context, fullName string, limit int) ([]recommend.Entity, error) {
	return p.listUsers(ctx, "get_contributors", "/repos/"+escapeFullName(fullName)+"/contributors", limit)
}

func (p *Provider) listUsers(ctx context.Context, op, path string, limit int) ([]recommend.Entity, error) {
	var users []ghUser
	if err := p.gh.getJSON(ctx, op, path, p.pageQuery(limit, nil), &users); err != nil {
		return nil, err
	}

	out := make([]recommend.Entity, 0, len(users))
	for _, u := range users {
		if u.Login == "" {
			continue
		}
		out = append(out, recommend.Entity{ID: u.Login, Kind: recommend.KindUser})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) listRepos(ctx context.Context, op, path string, limit int) ([]recommend.Entity, error) {
	var repos []ghRepo
	if err := p.gh.getJSON(ctx, op, path, p.pageQuery(limit, nil), &repos); err != nil {
		return nil, err
	}
	return repoEntities(repos, limit), nil
}

func (p *Provider) searchRepos(ctx context.Context, op, query string, limit int) ([]recommend.Entity, error) {
	q := p.pageQuery(limit, url.Values{"q": {query}, "sort": {"stars"}, "order": {"desc"}})
	var res ghSearchRepos
	if err := p.gh.getJSON(ctx, op, "/search/repositories", q, &res); err != nil {
		return nil, err
	}
	return repoEntities(res.Items, limit), nil
}

func (p *Provider) searchUsers(ctx context.Context, op, query string, limit int) ([]recommend.Entity, error) {
	q := p.pageQuery(limit, url.Values{"q": {query}, "sort": {"followers"}, "order": {"desc"}})
	var res ghSearchUsers
	if err := p.gh.getJSON(ctx, op, "/search/users", q, &res); err != nil {
		return nil, err
	}

	out := make([]recommend.Entity, 0, len(res.Items))
	for _, u := range res.Items {
		if u.Login == "" {
			continue
		}
		out = append(out, recommend.Entity{ID: u.Login, Kind: recommend.KindUser})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// repoEntities converts list payloads into pre-hydrated repo entities.
func repoEntities(repos []ghRepo, limit int) []recommend.Entity {
	out := make([]recommend.Entity, 0, len(repos))
	for _, r := range repos {
		if r.FullName == "" {
			continue
		}
		shares := map[string]float64{}
		if r.Language != "" {
			shares[r.Language] = 1
		}
		out = append(out, recommend.Entity{
			ID:   r.FullName,
			Kind: recommend.KindRepo,
			Repo: &recommend.RepoMetrics{
				Stars:           r.Stars,
				Forks:           r.Forks,
				Watchers:        r.Watchers,
				Size:            r.Size,
				PrimaryLanguage: r.Language,
				LanguageShares:  shares,
				Topics:          r.Topics,
				LastUpdated:     r.UpdatedAt,
			},
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// pageQuery clamps the page size to the API maximum and merges extra params.
func (p *Provider) pageQuery(limit int, extra url.Values) url.Values {
	per := limit
	if per > p.cfg.PageSize || per < 1 {
		per = p.cfg.PageSize
	}
	q := url.Values{"per_page": {strconv.Itoa(per)}}
	for k, vs := range extra {
		q[k] = vs
	}
	return q
}

// escapeFullName escapes an "owner/name" id preserving the separator.
func escapeFullName(fullName string) string {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return url.PathEscape(fullName)
	}
	return url.PathEscape(owner) + "/" + url.PathEscape(name)
}
