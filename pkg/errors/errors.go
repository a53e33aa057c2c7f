// Package errors provides structured error types for visiongraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes group failures by how callers are expected to react:
//   - INVALID_*: malformed input documents or arguments
//   - UNKNOWN_*: references to types or functions that are not registered
//   - IMPORT_ERROR: structural nodetree import failures, surfaced to the editor
//   - UNAVAILABLE: persistence could not be read or written
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidProfile, "profile %d out of range", n)
//	if errors.Is(err, errors.ErrCodeInvalidProfile) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnavailable, origErr, "read %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidProfile  Code = "INVALID_PROFILE"
	ErrCodeInvalidNodeID   Code = "INVALID_NODE_ID"

	// Registry lookups
	ErrCodeUnknownType     Code = "UNKNOWN_TYPE"
	ErrCodeUnknownFunction Code = "UNKNOWN_FUNCTION"

	// Graph reconciliation and execution
	ErrCodeImport    Code = "IMPORT_ERROR"
	ErrCodeExecution Code = "EXECUTION_ERROR"

	// Persistence
	ErrCodeUnavailable Code = "UNAVAILABLE"

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

// Is reports whether any *Error in err's tree has the given code. Joined
// errors and multi-cause wrappers are searched as well.
func Is(err error, code Code) bool {
	return errors.Is(err, codeTarget(code))
}

// codeTarget matches any *Error carrying the same code in errors.Is.
type codeTarget Code

func (c codeTarget) Error() string { return string(c) }

// Is lets errors.Is match an *Error by code through [Is]. Comparisons against
// other targets keep their identity semantics.
func (e *Error) Is(target error) bool {
	c, ok := target.(codeTarget)
	return ok && e.Code == Code(c)
}

// GetCode returns the code of the first *Error in err's tree, or "" if there
// is none.
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
