package models

import (
	"errors"
	"fmt"
)

// Error codes used in JSON error responses
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrMissionNotFound    = errors.New("mission not found")
	ErrProgressNotFound   = errors.New("mission progress not found")
	ErrLedgerNotFound     = errors.New("points ledger not found")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInsufficientPoints = errors.New("insufficient points balance")

	// Mission catalog validation errors, propagated to the admin caller
	ErrInvalidTargetCount  = errors.New("target count must be at least 1")
	ErrInvalidRewardPoints = errors.New("reward points must not be negative")
	ErrInvalidActiveWindow = errors.New("active window start must not be after its end")
	ErrInvalidMissionKind  = errors.New("unsupported mission kind")
	ErrInvalidTrigger      = errors.New("trigger action type outside the canonical vocabulary")
)

// AppError carries an error code and HTTP status alongside the message
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a 400 validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    message,
		StatusCode: 400,
	}
}

// NewNotFoundError builds a 404 error for a missing resource
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
	}
}

// NewInternalError wraps an unexpected failure without leaking details
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    "internal server error",
		StatusCode: 500,
		Details:    map[string]interface{}{"original_error": err.Error()},
	}
}
