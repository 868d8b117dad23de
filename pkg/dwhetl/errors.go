package dwhetl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds of a run.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := loader.Run(ctx, config)
//	if errors.Is(err, dwhetl.ErrLoad) {
//	    // a COPY failed; check stl_load_errors
//	}
var (
	// ErrInvalidConfig indicates the run configuration (flags, connection) is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigMissing indicates a required configuration key is absent.
	ErrConfigMissing = errors.New("configuration key missing")

	// ErrConfigMalformed indicates a configuration value failed shape validation.
	ErrConfigMalformed = errors.New("configuration value malformed")

	// ErrConnectionFailed indicates a network or authentication failure, or a
	// session that was closed while a statement was in flight.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSchema indicates a DDL statement failed.
	ErrSchema = errors.New("schema error")

	// ErrLoad indicates a bulk load from object storage failed.
	ErrLoad = errors.New("load error")

	// ErrTransform indicates an INSERT ... SELECT from staging failed.
	ErrTransform = errors.New("transform error")

	// ErrTimeout indicates a caller-imposed timeout expired.
	ErrTimeout = errors.New("timeout")

	// ErrApprovalDenied indicates the user denied dropping the tables.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// StatementError identifies the statement that aborted a run.
// It unwraps to both the kind sentinel (ErrSchema, ErrLoad, ...) and the driver error.
type StatementError struct {
	Name     string
	Category Category
	Index    int
	Kind     error
	Err      error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s statement %d (%s): %v: %v", e.Category, e.Index, e.Name, e.Kind, e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *StatementError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ExitTimeoutError
	case errors.Is(err, ErrConfigMissing), errors.Is(err, ErrConfigMalformed), errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrLoad):
		return ExitLoadError
	case errors.Is(err, ErrTransform):
		return ExitTransformError
	}

	errStr := err.Error()
	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.HasPrefix(errStr, "unknown command") ||
		strings.HasPrefix(errStr, "invalid argument") ||
		strings.HasPrefix(errStr, "required flag") ||
		strings.HasPrefix(errStr, "accepts ") {
		return ExitUsageError
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
