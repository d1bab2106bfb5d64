// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package validation provides struct validation using go-playground/validator v10.
// It exposes a thread-safe singleton validator with custom validators for
// OpenChain request fields.
//
// Custom validators:
//   - entitykind: value is "user" or "repo"
//
// Checks that depend on another field's value, like the owner/name form of
// repository anchors, cannot be expressed as tags; they go through
// IsRepoFullName instead.
//
// Example:
//
//	type GraphRequest struct {
//	    AnchorKind string `validate:"required,entitykind"`
//	    AnchorID   string `validate:"required,min=1,max=200"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// repoFullNamePattern matches "owner/name" ids. Owner and name follow the
// hosting platform's character rules; a single slash separates them.
var repoFullNamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?/[A-Za-z0-9._-]+$`)

// Validator returns the singleton validator, initializing it on first use.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails for empty tags; panic keeps misuse loud.
		if err := validate.RegisterValidation("entitykind", validateEntityKind); err != nil {
			panic(fmt.Sprintf("register entitykind validator: %v", err))
		}
	})
	return validate
}

// validateEntityKind accepts "user" or "repo".
func validateEntityKind(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "user" || v == "repo"
}

// IsRepoFullName reports whether s is a well-formed "owner/name" id. Used for
// checks that depend on another field's value, which tag-based validation
// cannot express.
func IsRepoFullName(s string) bool {
	return repoFullNamePattern.MatchString(s)
}

// ValidationError is a single field validation failure.
type ValidationError struct {
	field   string
	tag     string
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Error returns a human-readable error message.
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError is a collection of validation failures for one request.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		msgs[i] = e.message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors the models error shape to avoid an import cycle.
type APIError struct {
	Code    string
	Message string
}

// ToAPIError converts the validation failures to the API error format.
func (ve *RequestValidationError) ToAPIError() *APIError {
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
	}
}

// ValidateStruct validates a struct and returns a typed error collection, or
// nil when validation passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return &RequestValidationError{errors: []ValidationError{{
			field:   "",
			tag:     "struct",
			message: "invalid validation target",
		}}}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{errors: []ValidationError{{
			field:   "",
			tag:     "unknown",
			message: err.Error(),
		}}}
	}

	out := &RequestValidationError{}
	for _, fe := range verrs {
		out.errors = append(out.errors, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			message: messageFor(fe),
		})
	}
	return out
}

// messageFor renders a stable, human-readable message per failed tag.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "entitykind":
		return fmt.Sprintf("%s must be \"user\" or \"repo\"", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
