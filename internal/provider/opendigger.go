// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package provider

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// openDiggerClient fetches openrank values from the OpenDigger dataset.
// Openrank is an enrichment signal: every failure degrades to 0 rather than
// failing the caller, so a dataset outage never blocks recommendations.
type openDiggerClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func newOpenDiggerClient(cfg Config, log zerolog.Logger) *openDiggerClient {
	return &openDiggerClient{
		baseURL: cfg.OpenDiggerBaseURL,
		http:    &http.Client{Timeout: cfg.CallTimeout},
		log:     log.With().Str("component", "opendigger").Logger(),
	}
}

// repoOpenRank returns the latest monthly openrank for "owner/name", 0 when
// unavailable.
func (c *openDiggerClient) repoOpenRank(ctx context.Context, fullName string) float64 {
	return c.latest(ctx, "/github/"+fullName+"/openrank.json")
}

// userOpenRank returns the latest monthly openrank for a user, 0 when
// unavailable.
func (c *openDiggerClient) userOpenRank(ctx context.Context, login string) float64 {
	return c.latest(ctx, "/github/"+login+"/openrank.json")
}

// latest fetches an openrank series and returns the most recent monthly
// value. Series keys are "YYYY-MM" months plus aggregate keys like "2024Q1";
// only plain months are considered.
func (c *openDiggerClient) latest(ctx context.Context, path string) float64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("openrank fetch failed")
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0
	}

	var series map[string]float64
	if err := json.Unmarshal(body, &series); err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("openrank decode failed")
		return 0
	}

	months := make([]string, 0, len(series))
	for k := range series {
		if len(k) == 7 && k[4] == '-' {
			months = append(months, k)
		}
	}
	if len(months) == 0 {
		return 0
	}
	sort.Strings(months)
	return series[months[len(months)-1]]
}
