// Package errors provides structured error types for invitekit.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Per-field validation breakdowns callers can show in one pass
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the failure categories of the generation flow:
//   - CATALOG_INVALID: malformed template definitions, fatal at startup
//   - VALIDATION_FAILED, INVALID_FORMAT: bad caller input, recoverable
//   - RENDER_FAILED: drawing or encoding failure, fatal to one request
//   - TOKEN_*: delivery outcomes (unknown, expired, already consumed)
//
// Asset degradations (missing fonts or background images) are never errors;
// they are logged and rendering continues with a fallback.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", id)
//	if errors.Is(err, errors.ErrCodeTemplateNotFound) {
//	    // respond 404
//	}
//
//	err := errors.Wrap(errors.ErrCodeRenderFailed, cause, "encode %s", format)
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
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeValidationFailed Code = "VALIDATION_FAILED"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Catalog errors
	ErrCodeCatalogInvalid   Code = "CATALOG_INVALID"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"

	// Rendering errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Delivery errors
	ErrCodeTokenNotFound Code = "TOKEN_NOT_FOUND"
	ErrCodeTokenExpired  Code = "TOKEN_EXPIRED"
	ErrCodeTokenConsumed Code = "TOKEN_CONSUMED"

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
// It unwraps the error chain looking for an *Error with a matching code,
// and also matches a *ValidationError against ErrCodeValidationFailed.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrCodeValidationFailed
	}
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
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Summary()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// As is errors.As from the standard library, re-exported so callers that
// import this package as "errors" do not need a second import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
