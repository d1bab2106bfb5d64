// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Frank-whw/OpenChain/internal/logging"
	"github.com/Frank-whw/OpenChain/internal/recommend"
	"github.com/Frank-whw/OpenChain/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection through attacker-controlled ids.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// statusForKind maps the engine's error taxonomy to HTTP statuses. The wire
// envelope carries the taxonomy kind either way; the status is for proxies
// and generic clients.
func statusForKind(kind recommend.ErrorKind) int {
	switch kind {
	case recommend.KindRateLimit:
		return http.StatusTooManyRequests
	case recommend.KindUserNotFound, recommend.KindRepoNotFound:
		return http.StatusNotFound
	case recommend.KindNoUserRepos, recommend.KindNoLanguagePreference,
		recommend.KindNoContributors, recommend.KindNoRecommendations:
		return http.StatusUnprocessableEntity
	case recommend.KindUserRecommendation, recommend.KindRepoRecommendation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validateRequest validates a struct, returning a wire-ready error message or
// empty string when validation passes.
func validateRequest(v interface{}) string {
	if err := validation.ValidateStruct(v); err != nil {
		return err.ToAPIError().Message
	}
	return ""
}
