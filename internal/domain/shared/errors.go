// Package shared contains the error taxonomy and identifier helpers used by
// every domain package.
package shared

import (
	"errors"
	"fmt"
)

// Business error kinds. Callers test for them with errors.Is().
// Anything that does not match one of these is an infrastructure failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "schedule", "progress", "adherence"
	Op      string // operation that failed, e.g., "Complete"
	Kind    error  // one of the kinds above
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

// Unwrap returns the underlying error, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against the kind and the wrapped error.
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

// Entity lookups.
var (
	ErrUserNotFound     = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrVideoNotFound    = NewDomainError("catalog", "FindVideo", ErrNotFound, "video not found")
	ErrCategoryNotFound = NewDomainError("catalog", "FindCategory", ErrNotFound, "category not found")
	ErrScheduleNotFound = NewDomainError("schedule", "Find", ErrNotFound, "schedule not found")
	ErrProgressNotFound = NewDomainError("progress", "Find", ErrNotFound, "progress entry not found")
)

// Schedule lifecycle.
var (
	ErrScheduleCompleted = NewDomainError("schedule", "Complete", ErrAlreadyCompleted, "schedule already completed")
	ErrUnknownVideo      = NewDomainError("schedule", "Create", ErrInvalidReference, "video does not exist")
	ErrUnknownUser       = NewDomainError("schedule", "Create", ErrInvalidReference, "target user does not exist")
	ErrMissingDate       = NewDomainError("schedule", "Create", ErrInvalidInput, "scheduled date is required")
)

// Progress recording.
var (
	ErrInvalidRating = NewDomainError("progress", "Validate", ErrInvalidInput, "rating must be between 1 and 5")
)

// Access.
var (
	ErrAccessDenied = NewDomainError("access", "Check", ErrForbidden, "access denied")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsBusiness reports whether err belongs to the business taxonomy.
// Everything else is an opaque infrastructure error.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidInput)
}
