package llm

import (
	"errors"
	"fmt"
)

// FailureClass classifies a generation service failure for backoff selection.
type FailureClass string

const (
	// FailureOverloaded indicates the service rejected the call because it is
	// at capacity (e.g. HTTP 503, "model is overloaded").
	FailureOverloaded FailureClass = "overloaded"
	// FailureTimeout indicates the call exceeded its deadline (e.g. HTTP 504).
	FailureTimeout FailureClass = "timeout"
	// FailureRateLimited indicates the service throttled the caller (HTTP 429).
	FailureRateLimited FailureClass = "rate_limited"
	// FailureOther covers remaining transient failures (network errors, 5xx).
	FailureOther FailureClass = "other"
)

// ServiceError is a transient failure returned by the generation service.
// All service errors are retryable; the class selects the backoff tier.
type ServiceError struct {
	Class FailureClass
	err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service %s: %v", e.Class, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError wraps an error as a classified transient service failure.
func NewServiceError(class FailureClass, err error) error {
	return &ServiceError{Class: class, err: err}
}

// ValidationError indicates the service responded but the content failed the
// configured quality heuristics. Validation failures are retryable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "content validation failed: " + e.Reason
}

// FatalError represents a permanent error that should not be retried
// (bad request, auth failure, malformed configuration).
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// GenerationError is the terminal error returned once retries are exhausted.
// It carries the class and reason of the last failed attempt.
type GenerationError struct {
	Attempts  int
	LastClass FailureClass
	err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts (last: %s): %v", e.Attempts, e.LastClass, e.err)
}

func (e *GenerationError) Unwrap() error {
	return e.err
}

// ClassOf returns the failure class of a service error, or FailureOther when
// the error carries no class of its own.
func ClassOf(err error) FailureClass {
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc.Class
	}
	return FailureOther
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IsValidation returns true if the error is a content validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
