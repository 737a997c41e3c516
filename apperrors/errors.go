// Package apperrors defines the coded error taxonomy shared by the engine and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

type ErrorCode int

// System errors (1000-1999)
const (
	ErrInternal ErrorCode = 1000 + iota
	ErrStorage
	ErrTimeout
)

// Auth errors (2000-2999)
const (
	ErrUnauthorized ErrorCode = 2000 + iota
	ErrForbidden
	ErrInvalidToken
)

// Request errors (3000-3999)
const (
	ErrBadRequest ErrorCode = 3000 + iota
	ErrValidation
	ErrNotFound
)

// Moderation errors (4000-4999)
const (
	ErrPolicyViolation ErrorCode = 4000 + iota
	ErrCrisisFlag
	ErrQuotaExceeded
	ErrDuplicateReport
	ErrReporterSuspended
	ErrIdentitySuspended
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Storage wraps a store failure. Store failures are never swallowed.
func Storage(message string, err error) *AppError {
	return Wrap(ErrStorage, message, err)
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
