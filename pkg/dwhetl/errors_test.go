package dwhetl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, dwhetl.ExitSuccess},
		{"general error", errors.New("something went wrong"), dwhetl.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --foo"), dwhetl.ExitUsageError},
		{"accepts args", errors.New("accepts 0 arg(s), received 1"), dwhetl.ExitUsageError},
		{"config missing", fmt.Errorf("IAM_ROLE.ARN: %w", dwhetl.ErrConfigMissing), dwhetl.ExitConfigError},
		{"config malformed", fmt.Errorf("GEO.REGION: %w", dwhetl.ErrConfigMalformed), dwhetl.ExitConfigError},
		{"invalid config", dwhetl.ErrInvalidConfig, dwhetl.ExitConfigError},
		{"connection failed", dwhetl.ErrConnectionFailed, dwhetl.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), dwhetl.ExitConnectionError},
		{"approval denied", dwhetl.ErrApprovalDenied, dwhetl.ExitApprovalDenied},
		{"schema", &dwhetl.StatementError{Kind: dwhetl.ErrSchema, Err: errors.New("boom")}, dwhetl.ExitSchemaError},
		{"load", &dwhetl.StatementError{Kind: dwhetl.ErrLoad, Err: errors.New("boom")}, dwhetl.ExitLoadError},
		{"transform", &dwhetl.StatementError{Kind: dwhetl.ErrTransform, Err: errors.New("boom")}, dwhetl.ExitTransformError},
		{"timeout", &dwhetl.StatementError{Kind: dwhetl.ErrTimeout, Err: errors.New("deadline")}, dwhetl.ExitTimeoutError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dwhetl.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatementError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("relation \"staging_events\" already exists")
	err := fmt.Errorf("run failed: %w", &dwhetl.StatementError{
		Name:     "staging_events",
		Category: dwhetl.CategoryCreate,
		Index:    1,
		Kind:     dwhetl.ErrSchema,
		Err:      cause,
	})

	if !errors.Is(err, dwhetl.ErrSchema) {
		t.Error("expected errors.Is(err, ErrSchema)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}

	var stmtErr *dwhetl.StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatal("expected errors.As to find StatementError")
	}
	if stmtErr.Category != dwhetl.CategoryCreate || stmtErr.Name != "staging_events" {
		t.Errorf("unexpected statement identity: %s/%s", stmtErr.Category, stmtErr.Name)
	}

	want := "create statement 1 (staging_events): schema error: relation \"staging_events\" already exists"
	if stmtErr.Error() != want {
		t.Errorf("Error() = %q, want %q", stmtErr.Error(), want)
	}
}
