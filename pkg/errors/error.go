// Package errors provides the coded error type used across the backtester.
//
// Error codes are grouped so callers can tell fatal failures from recoverable ones:
//   - General errors (1-99)
//   - Validation errors (100-199): configuration and parameter problems
//   - Data errors (200-299): malformed input bars, raised once when a feed is built
//   - Indicator errors (300-399): registry lookups and history access
//   - Strategy errors (400-499): strategy construction and evaluation
//   - Order errors (500-599): rejected or invalid orders, recorded and skipped by the run loop
//   - Backtest errors (600-699): orchestrator setup and cancellation
//   - Callback errors (800-899): lifecycle callback failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeDuplicateTimestamp, "duplicate timestamp %s at index %d", ts, i)
//	if errors.HasCode(err, errors.ErrCodeMarginRejected) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a structured error carrying an ErrorCode.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps cause with the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from err.
// Returns ErrCodeUnknown if err is not an *Error.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsDataError reports whether err is a fatal input data error.
func IsDataError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.IsDataError()
	}

	return false
}

// InsufficientDataError is returned when a lookback asks for more history than is stored.
type InsufficientDataError struct {
	Required int
	Actual   int
	Key      string
	Message  string
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, key, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Key:      key,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
