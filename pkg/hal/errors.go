package hal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Problem represents an application/problem+json error document, the
// error body HAL-convention APIs commonly return alongside a non-2xx
// status.
type Problem struct {
	Type   string `json:"type,omitempty"   yaml:"type,omitempty"`
	Title  string `json:"title,omitempty"  yaml:"title,omitempty"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ParseProblem decodes an error body into a Problem.
func ParseProblem(data []byte) (*Problem, error) {
	var problem Problem
	if err := json.Unmarshal(data, &problem); err != nil {
		return nil, fmt.Errorf("parsing problem document: %w", err)
	}

	return &problem, nil
}

// DataError represents a remote or server-side failure. It carries the
// HTTP status code of the failed request.
type DataError struct {
	StatusCode int
	Problem    *Problem
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Problem != nil && e.Problem.Title != "" {
		return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Problem.Title)
	}

	return fmt.Sprintf("api request failed with status %d", e.StatusCode)
}

// ValidationError represents input the API rejected, HTTP 400-class
// semantics (400 and 422 responses map here).
type ValidationError struct {
	StatusCode int
	Problem    *Problem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Problem != nil && e.Problem.Detail != "" {
		return fmt.Sprintf("api rejected request as invalid: %s", e.Problem.Detail)
	}

	return "api rejected request as invalid"
}

// Common static errors that can be wrapped with context.
var (
	ErrCacheKeyNotFound      = errors.New("key not found")
	ErrCacheEntryExpired     = errors.New("entry expired")
	ErrCacheEntryTooLarge    = errors.New("cache entry exceeds size limit")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrNATSBucketRequired    = errors.New("NATS bucket name is required")
	ErrUnsupportedQueryKind  = errors.New("unsupported query kind")
	ErrNoMoreRecords         = errors.New("no more records")
	ErrConfigRequired        = errors.New("config is required")
	ErrEndpointRequired      = errors.New("API endpoint is required")
	ErrNoHostInURL           = errors.New("no host specified in URL")
	ErrParticleRequired      = errors.New("particle name is required")
	ErrTransportRequired     = errors.New("transport is required")
	ErrUnknownOperationType  = errors.New("unknown batch operation type")
)

// Classify maps a response's result-level marker to an error. A failure
// level yields a *DataError carrying the HTTP status code; a
// validation-error level yields a *ValidationError; success yields nil.
// A nil response also yields nil: the transport-failure path is recorded
// as state by the caller, not raised here.
func Classify(resp *RawResponse) error {
	if resp == nil {
		return nil
	}

	switch resp.Level() {
	case ResultFailure:
		return &DataError{StatusCode: resp.StatusCode(), Problem: resp.Problem()}
	case ResultValidation:
		return &ValidationError{StatusCode: resp.StatusCode(), Problem: resp.Problem()}
	default:
		return nil
	}
}

// IsDataError checks if the error is a remote failure.
func IsDataError(err error) bool {
	var dataErr *DataError

	return errors.As(err, &dataErr)
}

// IsValidationError checks if the error is a validation rejection.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// IsNotFound checks if the error is a remote failure with a 404 status.
func IsNotFound(err error) bool {
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return dataErr.StatusCode == 404
	}

	return false
}
