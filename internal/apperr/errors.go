// Package apperr defines the error taxonomy surfaced by the search engine.
// Validation errors are caller-fixable and never retried; timeout and
// service-unavailable errors indicate degraded capability and are safe to
// retry later; rate-limit errors carry a retry-after hint.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError names the offending field so the caller can fix the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func Validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TimeoutError marks an operation that exceeded its deadline, distinguished
// from generic failure so callers can retry with a larger timeout.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Timeout)
}

func Timeout(operation string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Timeout: timeout}
}

// ServiceUnavailableError means a dependency failed and no fallback
// succeeded. It names both failures for diagnosis.
type ServiceUnavailableError struct {
	Dependency  string
	PrimaryErr  error
	FallbackErr error
}

func (e *ServiceUnavailableError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("%s unavailable: primary: %v; fallback: %v", e.Dependency, e.PrimaryErr, e.FallbackErr)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.PrimaryErr)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.PrimaryErr }

func Unavailable(dependency string, primary, fallback error) *ServiceUnavailableError {
	return &ServiceUnavailableError{Dependency: dependency, PrimaryErr: primary, FallbackErr: fallback}
}

// RateLimitError carries the retry-after hint in seconds.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func RateLimited(retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{RetryAfter: retryAfter}
}

// ErrNotFound is returned when a document does not exist or the caller does
// not own it. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

func IsUnavailable(err error) bool {
	var se *ServiceUnavailableError
	return errors.As(err, &se)
}
