// Package errors provides structured error types for peviz.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, TUI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into the categories the visualizer distinguishes:
//   - Input errors (EMPTY_INPUT, NO_TOKENS, INVALID_*): reported to the user,
//     the visualization is cleared and nothing is computed
//   - Asset errors (ASSET_PENDING, ASSET_UNAVAILABLE): the font is not usable;
//     ASSET_UNAVAILABLE is terminal for the session
//   - Internal errors: unexpected failures in renderers or caches
//
// Numeric degeneracies (zero directions, non-finite camera positions) are
// corrected silently and never surface as errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyInput, "input sentence cannot be empty")
//	if errors.Is(err, errors.ErrCodeEmptyInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeAssetUnavailable, origErr, "load font %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeEmptyInput     Code = "EMPTY_INPUT"
	ErrCodeNoTokens       Code = "NO_TOKENS"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle   Code = "INVALID_STYLE"
	ErrCodeInvalidVizType Code = "INVALID_VIZ_TYPE"

	// Asset errors
	ErrCodeAssetPending     Code = "ASSET_PENDING"
	ErrCodeAssetUnavailable Code = "ASSET_UNAVAILABLE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInput reports whether err is a user-input error.
func IsInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeEmptyInput, ErrCodeNoTokens,
		ErrCodeInvalidFormat, ErrCodeInvalidStyle, ErrCodeInvalidVizType:
		return true
	}
	return false
}

// IsAsset reports whether err concerns the font asset.
func IsAsset(err error) bool {
	c := GetCode(err)
	return c == ErrCodeAssetPending || c == ErrCodeAssetUnavailable
}
