// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package recommend

import (
	"errors"
	"fmt"
)

// Provider classification sentinels. Provider implementations wrap one of
// these into every failure so the engine can map upstream outcomes onto the
// public taxonomy with errors.Is.
var (
	// ErrNotFound is an entity the upstream does not know.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is an upstream quota rejection.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is a provider call that missed its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrUnavailable is any other upstream failure.
	ErrUnavailable = errors.New("unavailable")
)

// ErrorKind is the stable machine-readable error classification surfaced on
// the API boundary. Values are surfaced unchanged as the response errorType.
type ErrorKind string

const (
	// KindRateLimit is an upstream rate-limit rejection. Never retried.
	KindRateLimit ErrorKind = "RATE_LIMIT_ERROR"

	// KindUserNotFound is an unknown anchor user.
	KindUserNotFound ErrorKind = "USER_NOT_FOUND"

	// KindRepoNotFound is an unknown anchor repository.
	KindRepoNotFound ErrorKind = "REPO_NOT_FOUND"

	// KindNoUserRepos is a user anchor with no public repositories when a
	// repository-based pool was required.
	KindNoUserRepos ErrorKind = "NO_USER_REPOS"

	// KindNoLanguagePreference is a user anchor whose repositories expose
	// no language signal when a language-based pool was required.
	KindNoLanguagePreference ErrorKind = "NO_LANGUAGE_PREFERENCE"

	// KindUserRecommendation is a generic failure while recommending users.
	KindUserRecommendation ErrorKind = "USER_RECOMMENDATION_ERROR"

	// KindRepoRecommendation is a generic failure while recommending repositories.
	KindRepoRecommendation ErrorKind = "REPO_RECOMMENDATION_ERROR"

	// KindNoContributors is a repository anchor with no reachable contributors.
	KindNoContributors ErrorKind = "NO_CONTRIBUTORS"

	// KindNoRecommendations is an empty final node set after stratification.
	KindNoRecommendations ErrorKind = "NO_RECOMMENDATIONS"

	// KindInternal is any other failure. The raw cause stays server-side.
	KindInternal ErrorKind = "INTERNAL_ERROR"
)

// Error is the typed failure crossing the engine boundary. Message is safe to
// surface; Err is the wrapped cause and never leaves the process.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed engine error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from any error, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the surfaceable message from any error. Unclassified
// errors get a generic message so raw internal text never crosses the boundary.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
