package dwhetl

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
	ExitConfigError     = 10 // Missing or malformed configuration
	ExitConnectionError = 11 // Failed to connect to the warehouse
	ExitApprovalDenied  = 12 // User denied the table drop
	ExitSchemaError     = 13 // DDL failed
	ExitLoadError       = 14 // COPY failed
	ExitTransformError  = 15 // INSERT ... SELECT failed
	ExitTimeoutError    = 16 // Statement or run timeout expired
)

const (
	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default number of connection retries the CLI performs.
	DefaultRetryMaxAttempts = 3

	// DefaultRunTimeout bounds a whole run. COPY from S3 can take a while.
	DefaultRunTimeout = 30 * time.Minute

	// DefaultConfigFile is the INI file read by the configuration resolver.
	DefaultConfigFile = "dwh.cfg"

	// DefaultPort is the Redshift listener port.
	DefaultPort = 5439

	// DefaultSSLMode is used when neither flags, environment nor dwh.cfg set one.
	DefaultSSLMode = "require"

	// DefaultAppName is reported to the warehouse as application_name.
	DefaultAppName = "dwhetl"

	// MaxErrorPreviewLength is the maximum number of characters of SQL shown
	// in error messages and plan previews.
	MaxErrorPreviewLength = 200
)
