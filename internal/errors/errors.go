package errors

import (
	"errors"
	"fmt"
)

// Exit codes for excellia
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitConfigError     = 2
	ExitValidationError = 3
	ExitRecordNotFound  = 4
	ExitUpstreamError   = 5
	ExitImportError     = 6
)

// AdminError is the base error type for excellia
type AdminError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AdminError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AdminError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *AdminError) ExitCode() int {
	return e.Code
}

// New creates a new AdminError
func New(code int, message string) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AdminError
func Wrap(code int, message string, cause error) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// RecordNotFound returns an error for a student or scholarship the upstream does not know
func RecordNotFound(kind, id string) *AdminError {
	return New(ExitRecordNotFound, fmt.Sprintf("%s not found: %s", kind, id))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *AdminError {
	return Wrap(ExitConfigError, message, cause)
}

// UpstreamError returns an error for a failed call to the upstream service
func UpstreamError(op string, cause error) *AdminError {
	return Wrap(ExitUpstreamError, fmt.Sprintf("upstream %s failed", op), cause)
}

// ImportError returns an error for spreadsheet import failures
func ImportError(message string, cause error) *AdminError {
	return Wrap(ExitImportError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string, cause error) *AdminError {
	return Wrap(ExitValidationError, message, cause)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var adminErr *AdminError
	if errors.As(err, &adminErr) {
		return adminErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
