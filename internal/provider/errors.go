// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// Error is a classified upstream failure. It wraps both the raw cause and one
// of the recommend package's classification sentinels, so callers can use
// errors.Is against recommend.ErrNotFound and friends without importing this
// package.
type Error struct {
	// Op is the provider operation that failed, e.g. "get_user".
	Op string

	// Status is the upstream HTTP status, 0 when the request never got a
	// response.
	Status int

	// Class is the classification sentinel: recommend.ErrNotFound,
	// ErrRateLimited, ErrTimeout or ErrUnavailable.
	Class error

	// Err is the raw cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.Status, e.Class)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Class)
}

// Unwrap exposes both the classification sentinel and the raw cause.
func (e *Error) Unwrap() []error {
	out := []error{e.Class}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// newError builds a classified provider error.
func newError(op string, status int, class, err error) *Error {
	return &Error{Op: op, Status: status, Class: class, Err: err}
}

// classifyStatus maps an HTTP status to a classification sentinel.
// GitHub signals primary rate limiting as 403 (legacy) or 429 with the
// remaining-quota header at zero; both are treated as rate limited.
func classifyStatus(status int) error {
	switch {
	case status == 404:
		return recommend.ErrNotFound
	case status == 403 || status == 429:
		return recommend.ErrRateLimited
	case status >= 500:
		return recommend.ErrUnavailable
	default:
		return recommend.ErrUnavailable
	}
}

// classifyTransport maps a transport-level failure to a sentinel.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return recommend.ErrTimeout
	}
	return recommend.ErrUnavailable
}
