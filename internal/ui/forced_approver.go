package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after the countdown,
// used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) dwhetl.Approver {
	return &ForcedApprover{
		verbose: verbose,
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown and automatically approves after the countdown.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintf(a.output, "DANGER: dropping %d table(s) in database '%s'\n", len(tables), dbName)
	if len(tables) > 0 {
		fmt.Fprintf(a.output, "  %s\n", strings.Join(tables, ", "))
	}
	fmt.Fprintln(a.output, "All loaded data in these tables will be lost.")
	fmt.Fprintln(a.output)

	countdownSeconds := int(dwhetl.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with table drop...                                     \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ dwhetl.Approver = (*ForcedApprover)(nil)
