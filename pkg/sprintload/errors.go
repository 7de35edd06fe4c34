package sprintload

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := runner.Run(ctx, config)
//	if errors.Is(err, sprintload.ErrApprovalDenied) {
//	    // Handle user denying the table reset
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSchemaFormat indicates the schema catalog contains an unrecognized
	// data type token. This is fatal: no load begins with a broken catalog.
	ErrSchemaFormat = errors.New("invalid schema catalog format")

	// ErrApprovalDenied indicates the user denied approval for the table reset.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrNamespaceSetup indicates namespace creation or table reset failed.
	// Fatal for the affected site; other sites are unaffected.
	ErrNamespaceSetup = errors.New("namespace setup failed")

	// ErrExportFailed indicates log aggregation or export failed.
	ErrExportFailed = errors.New("log export failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrSchemaFormat):
		return ExitSchemaFormat
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrNamespaceSetup):
		return ExitSetupFailed
	case errors.Is(err, ErrExportFailed):
		return ExitExportFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	// Cobra surfaces usage problems as plain error strings
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "arg(s), received") {
		return ExitUsageError
	}

	return ExitGeneralError
}
