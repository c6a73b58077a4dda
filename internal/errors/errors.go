package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedVulnInfo indicates sink or flow entries are missing file/line
	MalformedVulnInfo ErrorCode = "MALFORMED_VULN_INFO"
	// UnparsableFile indicates the structural index could not be built for a file
	UnparsableFile ErrorCode = "UNPARSABLE_FILE"
	// RepoUnreadable indicates the repo root or referenced files cannot be read
	RepoUnreadable ErrorCode = "REPO_UNREADABLE"
	// BudgetUnsatisfiable indicates must-keep content alone exceeds the line budget
	BudgetUnsatisfiable ErrorCode = "BUDGET_UNSATISFIABLE"
	// UnsupportedLanguage indicates no indexer is registered for a file's language
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// EmptyContext indicates extraction produced no usable code
	EmptyContext ErrorCode = "EMPTY_CONTEXT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ExtractError represents an extraction failure with a stable code,
// a human-readable message, and optional structured details.
type ExtractError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new ExtractError
func New(code ErrorCode, message string, cause error) *ExtractError {
	return &ExtractError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new ExtractError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ExtractError {
	return &ExtractError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ExtractError) WithDetails(details interface{}) *ExtractError {
	e.Details = details
	return e
}

// CodeOf returns the ErrorCode carried by err, or InternalError
// when err is not an ExtractError.
func CodeOf(err error) ErrorCode {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var ee *ExtractError
	return errors.As(err, &ee) && ee.Code == code
}

// IsMalformed reports whether err is a MalformedVulnInfo error.
func IsMalformed(err error) bool {
	return HasCode(err, MalformedVulnInfo)
}

// IsUnparsable reports whether err is an UnparsableFile error.
func IsUnparsable(err error) bool {
	return HasCode(err, UnparsableFile)
}
