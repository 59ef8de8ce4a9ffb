// Package apierr defines the judge's error taxonomy (spec.md section 7)
// and maps each variant to an HTTP status, the way the teacher's
// handler.sendError maps a bare message+status pair — generalized here
// to typed, wrapped errors instead of string/status pairs scattered
// through handler code.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError signals a malformed or semantically invalid request
// body (bad base64, unknown language_id, out-of-range limit, ...).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals a missing submission or language id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// TimeoutError signals the wait=true synchronous poll exceeded its
// deadline before the submission reached a terminal state.
type TimeoutError struct {
	ID string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("submission %s did not finish before the wait deadline", e.ID)
}

// NewTimeoutError builds a TimeoutError.
func NewTimeoutError(id string) error {
	return &TimeoutError{ID: id}
}

// RateLimitedError signals the caller exceeded the admission rate
// limit; RetryAfter is advisory, in seconds.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return "rate limit exceeded"
}

// NewRateLimitedError builds a RateLimitedError.
func NewRateLimitedError(retryAfter int) error {
	return &RateLimitedError{RetryAfter: retryAfter}
}

// StatusCode maps an error from this package (or a plain error) to the
// HTTP status the API layer should respond with. Unrecognized errors
// map to 500, matching the teacher's catch-all "Internal server error".
func StatusCode(err error) int {
	var validation *ValidationError
	var notFound *NotFoundError
	var timeout *TimeoutError
	var rateLimited *RateLimitedError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &timeout):
		return http.StatusRequestTimeout
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
