// Package errors provides application-level error types shared across the
// subscription core. Each type maps to an HTTP status so the workflow boundary
// can return typed results instead of opaque faults.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation             ErrorType = "validation_error"
	ErrorTypeNotFound               ErrorType = "not_found"
	ErrorTypeConflict               ErrorType = "conflict"
	ErrorTypeInvalidState           ErrorType = "invalid_state"
	ErrorTypeConcurrentModification ErrorType = "concurrent_modification"
	ErrorTypeExecutionCompensated   ErrorType = "execution_compensated"
	ErrorTypeUnauthorized           ErrorType = "unauthorized"
	ErrorTypeForbidden              ErrorType = "forbidden"
	ErrorTypeInternal               ErrorType = "internal_error"
)

// AppError carries the error type, a human-readable message naming the
// invariant that blocked the operation, and the underlying cause.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause so domain sentinels survive errors.Is checks
// through the workflow boundary.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying domain error.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func newError(errType ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewInvalidStateError creates an error for transitions illegal from the
// current state.
func NewInvalidStateError(message string, details ...string) *AppError {
	return newError(ErrorTypeInvalidState, http.StatusConflict, message, details...)
}

// NewConcurrentModificationError creates an optimistic-lock conflict error.
// The caller is expected to re-read and retry.
func NewConcurrentModificationError(message string, details ...string) *AppError {
	return newError(ErrorTypeConcurrentModification, http.StatusConflict, message, details...)
}

// NewExecutionCompensationError reports that an approval succeeded but the
// underlying execution failed and the request was rolled back to pending.
func NewExecutionCompensationError(message string, details ...string) *AppError {
	return newError(ErrorTypeExecutionCompensated, http.StatusConflict, message, details...)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details...)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newError(ErrorTypeForbidden, http.StatusForbidden, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeConflict
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeNotFound
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeValidation
}

// IsInvalidStateError checks if the error is an invalid state error
func IsInvalidStateError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeInvalidState
}

// IsConcurrentModificationError checks if the error is an optimistic-lock conflict
func IsConcurrentModificationError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeConcurrentModification
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint failed")
}
