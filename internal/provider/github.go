// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Frank-whw/OpenChain/internal/metrics"
	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// maxErrorBodySize bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 16 * 1024

// githubClient is the low-level GitHub REST client. Every call passes through
// a shared rate limiter and a circuit breaker; failures come back classified.
//
// The circuit breaker uses real time for its recovery windows. Tests exercise
// the client against httptest servers rather than mocking the breaker.
type githubClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

// newGitHubClient builds the REST client.
// Breaker settings: opens at a 60% failure rate over at least 10 requests,
// 3 trial requests in half-open, 1 minute measurement window, 2 minute
// recovery timeout. Breaker rejections classify as unavailable.
func newGitHubClient(cfg Config, log zerolog.Logger) *githubClient {
	const breakerName = "github-api"
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &githubClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.CallTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		log:     log.With().Str("component", "github").Logger(),
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// getJSON performs a GET against the GitHub API and decodes the response into
// out. Rate-limit rejections are never retried here; the caller surfaces them.
func (c *githubClient) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return newError(op, 0, classifyTransport(err), err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doGet(ctx, op, path, query)
	})
	metrics.ProviderCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			// Breaker rejection or other unclassified failure.
			perr = newError(op, 0, recommend.ErrUnavailable, err)
		}
		metrics.ProviderCallErrors.WithLabelValues(op, classLabel(perr.Class)).Inc()
		if perr.Class == recommend.ErrRateLimited {
			metrics.ProviderRateLimited.Inc()
		}
		return perr
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.ProviderCallErrors.WithLabelValues(op, "unavailable").Inc()
		return newError(op, 0, recommend.ErrUnavailable, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// doGet issues the request and classifies non-2xx outcomes.
func (c *githubClient) doGet(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	u := c.cfg.GitHubBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newError(op, 0, recommend.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(op, 0, classifyTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		c.log.Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("github call failed")
		return nil, newError(op, resp.StatusCode, classifyStatus(resp.StatusCode),
			fmt.Errorf("GET %s: %s", path, string(snippet)))
	}

	return io.ReadAll(resp.Body)
}

// classLabel converts a classification sentinel to a metrics label.
func classLabel(class error) string {
	switch class {
	case recommend.ErrNotFound:
		return "not_found"
	case recommend.ErrRateLimited:
		return "rate_limited"
	case recommend.ErrTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}
