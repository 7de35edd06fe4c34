package sprintload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied the table-reset approval
	ExitSetupFailed     = 13 // Namespace creation or table reset failed
	ExitSchemaFormat    = 14 // Schema catalog contains an unrecognized data type
	ExitExportFailed    = 15 // Log aggregation or export failed
)

const (
	// LogTableName is the per-namespace audit log table every run writes to.
	LogTableName = "pmi_sprint_reporter_log"

	// DefaultExportPath is where the aggregated log document is written
	// unless overridden in configuration. Overwritten on every run.
	DefaultExportPath = "_data/log.json"

	// DefaultDatetimePrecision is the fractional-second precision used for
	// datetime columns when the configuration does not specify one.
	DefaultDatetimePrecision = 6

	// DefaultForceApprovalCountdown is the countdown duration before a
	// forced (--force) table reset proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first
	// connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection
	// retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection
	// retry attempts. Failed table loads are never retried; retry applies
	// to connection establishment only.
	DefaultRetryMaxAttempts = 3

	// DefaultSchemaName is the namespace used when multi-schema isolation
	// is disabled and all sites share one table set.
	DefaultSchemaName = "public"
)

// Column width limits of the log table. Messages and params are truncated to
// these lengths before insertion so a verbose driver error cannot make the
// log write itself fail.
const (
	MaxLogTableNameLength = 100
	MaxLogPhaseLength     = 200
	MaxLogMessageLength   = 500
	MaxLogParamsLength    = 800
)
