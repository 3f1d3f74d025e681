package thread

import (
	"errors"
	"fmt"
)

// ===============================
// ERROR TYPES
// ===============================

// ThreadError represents a structured error from a thread operation.
type ThreadError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *ThreadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ThreadError) Unwrap() error {
	return e.Cause
}

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error. Validation failures are
// rejected before any optimistic mutation is applied.
func NewValidationError(message string, cause error) *ThreadError {
	return &ThreadError{
		Type:    "VALIDATION_ERROR",
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError creates a not found error for a locally missing entity.
func NewNotFoundError(message string) *ThreadError {
	return &ThreadError{
		Type:    "NOT_FOUND",
		Message: message,
	}
}

// NewConflictError creates a conflict error, used when a second mutation is
// attempted against an entity whose previous mutation is still in flight.
func NewConflictError(message, code string) *ThreadError {
	return &ThreadError{
		Type:    "CONFLICT",
		Message: message,
		Code:    code,
	}
}

// NewSyncError wraps a gateway or transport failure. By the time a sync
// error is returned the local state has been restored to its pre-mutation
// snapshot.
func NewSyncError(message string, cause error) *ThreadError {
	return &ThreadError{
		Type:    "SYNC_ERROR",
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *ThreadError {
	return &ThreadError{
		Type:    "INTERNAL_ERROR",
		Message: message,
	}
}

// ===============================
// ERROR UTILITIES
// ===============================

// GetThreadError extracts a ThreadError from an error, or wraps it in a
// generic internal error.
func GetThreadError(err error) *ThreadError {
	var te *ThreadError
	if errors.As(err, &te) {
		return te
	}
	return &ThreadError{
		Type:    "INTERNAL_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	var te *ThreadError
	if errors.As(err, &te) {
		return te.Type == errorType
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, "VALIDATION_ERROR")
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, "NOT_FOUND")
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return IsErrorType(err, "CONFLICT")
}

// IsSyncError checks if an error is a sync error
func IsSyncError(err error) bool {
	return IsErrorType(err, "SYNC_ERROR")
}
