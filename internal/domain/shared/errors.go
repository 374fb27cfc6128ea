// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	ErrNotFound        = errors.New("entity not found")
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "student", "homework", "rating"
	Op      string // operation that failed, e.g. "UpdatePoints"
	Kind    error  // base error for errors.Is() checking
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both Kind and the wrapped error.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound  = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidStudentID = NewDomainError("student", "Validate", ErrInvalidID, "student id must be positive")
	ErrScoreOutOfRange  = NewDomainError("student", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidCategory  = NewDomainError("rating", "ParseCategory", ErrInvalidInput, "unknown score category")
)

// Homework domain errors
var (
	ErrHomeworkNotFound   = NewDomainError("homework", "Find", ErrNotFound, "homework not found")
	ErrSubmissionNotFound = NewDomainError("homework", "FindSubmission", ErrNotFound, "submission not found")
	ErrBlankTitle         = NewDomainError("homework", "Create", ErrEmptyValue, "homework title is blank")
	ErrInvalidDifficulty  = NewDomainError("homework", "Validate", ErrInvalidInput, "unknown difficulty")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
)

// Remote rating endpoint errors
var (
	ErrRatingAPIUnavailable     = NewDomainError("ratingapi", "Request", ErrServiceUnavailable, "rating endpoint is unavailable")
	ErrRatingAPIRejected        = NewDomainError("ratingapi", "Request", ErrExternalService, "rating endpoint rejected the request")
	ErrRatingAPIInvalidResponse = NewDomainError("ratingapi", "Decode", ErrExternalService, "invalid response from rating endpoint")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
