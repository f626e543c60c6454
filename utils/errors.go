package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeRateLimited  ErrorCode = "RATE_LIMITED"
	CodeInternal     ErrorCode = "INTERNAL"
)

// HTTPStatus maps an error code to the status the API answers with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type returned by services and rendered by controllers.
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any *AppError carrying the same code, so errors.Is(err, ErrNotFound) works.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

var (
	ErrValidation   = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrNotFound     = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized, Message: "authentication required"}
	ErrForbidden    = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrConflict     = &AppError{Code: CodeConflict, Message: "conflict"}
	ErrInternal     = &AppError{Code: CodeInternal, Message: "internal error"}
)

func NotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg}
}

func Validation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

// FieldError builds a validation error for a single request field.
func FieldError(field, msg string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "validation failed",
		Details: map[string]string{field: msg},
	}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg}
}

// Internal wraps an unexpected storage or cache failure.
func Internal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, cause: cause}
}

// AsAppError returns err as an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", err)
}
