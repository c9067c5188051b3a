package apperr

import (
	"errors"
	"fmt"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Input and configuration errors
	ErrCodeConfigInvalid   ErrorCode = "CONFIG_INVALID"
	ErrCodeNoRepository    ErrorCode = "NO_REPOSITORY"
	ErrCodeNoStagedChanges ErrorCode = "NO_STAGED_CHANGES"

	// Transport errors
	ErrCodeTransportFailed  ErrorCode = "TRANSPORT_FAILED"
	ErrCodeTransportTimeout ErrorCode = "TRANSPORT_TIMEOUT"

	// Model output contract violations
	ErrCodeInvalidResponse   ErrorCode = "INVALID_RESPONSE"
	ErrCodeInvalidCommitType ErrorCode = "INVALID_COMMIT_TYPE"
	ErrCodeEmptySubject      ErrorCode = "EMPTY_SUBJECT"

	// Not an error for the user, but a distinct terminal outcome
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// AppError represents an application error with additional context
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	return CodeOf(err) == ErrCodeCancelled
}

// IsContractViolation reports whether err was caused by unusable model output.
func IsContractViolation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeInvalidResponse, ErrCodeInvalidCommitType, ErrCodeEmptySubject:
		return true
	}
	return false
}

// ExitCode maps error codes to process exit statuses.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case ErrCodeCancelled:
		return 0
	case ErrCodeConfigInvalid, ErrCodeNoRepository, ErrCodeNoStagedChanges:
		return 2
	case ErrCodeTransportFailed, ErrCodeTransportTimeout:
		return 3
	case ErrCodeInvalidResponse, ErrCodeInvalidCommitType, ErrCodeEmptySubject:
		return 4
	default:
		return 1
	}
}

// Common error constructors for convenience

// ConfigInvalid creates a configuration error
func ConfigInvalid(message string) *AppError {
	return New(ErrCodeConfigInvalid, message)
}

// NoRepository creates a missing repository error
func NoRepository() *AppError {
	return New(ErrCodeNoRepository, "Not a git repository")
}

// NoStagedChanges creates an error for a declined or empty staging step
func NoStagedChanges() *AppError {
	return New(ErrCodeNoStagedChanges, "No staged changes")
}

// TransportFailed creates a transport error carrying a truncated response body
func TransportFailed(status int, body string) *AppError {
	return &AppError{
		Code:    ErrCodeTransportFailed,
		Message: fmt.Sprintf("HTTP %d: %s", status, body),
		Details: body,
	}
}

// TransportTimeout creates a timeout error
func TransportTimeout(err error) *AppError {
	return Wrap(err, ErrCodeTransportTimeout, "Request timed out")
}

// InvalidResponse creates an error for model output that could not be recovered
func InvalidResponse(message string) *AppError {
	return New(ErrCodeInvalidResponse, message)
}

// Cancelled creates a cancellation outcome
func Cancelled(err error) *AppError {
	return Wrap(err, ErrCodeCancelled, "Request cancelled")
}
