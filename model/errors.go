package model

import (
	"errors"
	"fmt"
)

// Standard error codes.
const (
	ErrBadRequest       = "BAD_REQUEST"
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrValidationError  = "VALIDATION_ERROR"
	ErrInternalError    = "INTERNAL_ERROR"
	ErrStoreUnavailable = "STORE_UNAVAILABLE"
)

// Wizard-specific error codes.
const (
	ErrParseFailure     = "PARSE_FAILURE"
	ErrSyncFailed       = "SYNC_FAILED"
	ErrAlreadyCompleted = "ALREADY_COMPLETED"
	ErrSessionCompleted = "SESSION_COMPLETED"
)

// ErrorEnvelope is the standard error response envelope returned by the
// wizard service. It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsCode reports whether err is an *ErrorEnvelope carrying the given code.
func IsCode(err error, code string) bool {
	var ee *ErrorEnvelope
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewParseFailureError returns a PARSE_FAILURE error for a stored step payload
// that is not valid structured data.
func NewParseFailureError(stepID string, cause error) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrParseFailure,
		Message: fmt.Sprintf("stored payload for step %q is not valid: %v", stepID, cause),
	}
}

// NewSyncFailedError returns a SYNC_FAILED error wrapping a store write that
// did not complete. The in-memory edit survives; only durability is deferred.
func NewSyncFailedError(stepID string, cause error) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSyncFailed,
		Message: fmt.Sprintf("save for step %q did not complete: %v", stepID, cause),
	}
}

// NewAlreadyCompletedError returns an ALREADY_COMPLETED signal. Callers treat
// it as success-with-notice, not a failure.
func NewAlreadyCompletedError(sessionID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrAlreadyCompleted,
		Message: fmt.Sprintf("session %q is already completed", sessionID),
	}
}

// NewSessionCompletedError returns a SESSION_COMPLETED error for mutations
// attempted against a sealed session.
func NewSessionCompletedError(sessionID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSessionCompleted,
		Message: fmt.Sprintf("session %q is completed and read-only", sessionID),
	}
}

// NewStoreUnavailableError returns a STORE_UNAVAILABLE error.
func NewStoreUnavailableError(cause error) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrStoreUnavailable,
		Message: fmt.Sprintf("the response store is temporarily unavailable: %v", cause),
	}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}
