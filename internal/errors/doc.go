// Package errors provides typed errors with exit codes for excellia.
//
// AdminError wraps an error with an exit code and a user-facing message:
//
//	type AdminError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess         = 0  // Success
//	ExitGeneralError    = 1  // General/unknown errors
//	ExitConfigError     = 2  // Configuration error
//	ExitValidationError = 3  // A form field is missing or malformed
//	ExitRecordNotFound  = 4  // Student or scholarship does not exist upstream
//	ExitUpstreamError   = 5  // Upstream service call failed
//	ExitImportError     = 6  // Spreadsheet import failed
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
