// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package provider

import "time"

// Config holds provider settings.
type Config struct {
	// GitHubBaseURL is the REST API root. Default: https://api.github.com.
	GitHubBaseURL string `koanf:"github_base_url"`

	// OpenDiggerBaseURL is the openrank data root.
	// Default: https://oss.x-lab.info/open_digger.
	OpenDiggerBaseURL string `koanf:"opendigger_base_url"`

	// Token is the GitHub API token. Empty runs unauthenticated with the
	// much lower anonymous quota.
	Token string `koanf:"token"`

	// CallTimeout is the per-call deadline. Default: 10s.
	CallTimeout time.Duration `koanf:"call_timeout"`

	// RequestsPerSecond throttles outgoing GitHub calls. The authenticated
	// quota is 5000/h; the default of 8 rps keeps bursts inside secondary
	// limits. Default: 8.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the limiter burst size. Default: 16.
	Burst int `koanf:"burst"`

	// CacheTTL is how long hydrated entities stay cached. Default: 10m.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheMaxCost is the ristretto cost budget (approximate entry count).
	// Default: 100000.
	CacheMaxCost int64 `koanf:"cache_max_cost"`

	// PageSize caps list fetches per call. Default: 100 (the API maximum).
	PageSize int `koanf:"page_size"`
}

// DefaultConfig returns provider defaults.
func DefaultConfig() Config {
	return Config{
		GitHubBaseURL:     "https://api.github.com",
		OpenDiggerBaseURL: "https://oss.x-lab.info/open_digger",
		CallTimeout:       10 * time.Second,
		RequestsPerSecond: 8,
		Burst:             16,
		CacheTTL:          10 * time.Minute,
		CacheMaxCost:      100000,
		PageSize:          100,
	}
}
