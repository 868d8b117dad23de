package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the database name
// to confirm destructive operations.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer

	// isTerminal reports whether input is attached to a terminal.
	// Nil means it is.
	isTerminal func() bool
}

// NewInteractiveApprover creates a new InteractiveApprover reading stdin.
func NewInteractiveApprover(verbose bool) dwhetl.Approver {
	return &InteractiveApprover{
		verbose:    verbose,
		input:      os.Stdin,
		output:     os.Stderr,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// RequestApproval prompts the user to type the database name to confirm.
// Without a terminal nobody can answer, so the request is denied with
// dwhetl.ErrApprovalDenied.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	if a.isTerminal != nil && !a.isTerminal() {
		return false, fmt.Errorf("stdin is not a terminal; rerun with --force to drop tables non-interactively: %w", dwhetl.ErrApprovalDenied)
	}

	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP %d table(s) in database '%s'\n", len(tables), dbName)
	for _, t := range tables {
		fmt.Fprintf(a.output, "  - %s\n", t)
	}
	fmt.Fprintln(a.output, "This will permanently delete all data loaded into them!")
	fmt.Fprintf(a.output, "\nTo confirm, type the database name '%s' and press Enter: ", dbName)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && !(err == io.EOF && input != "") {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == dbName {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with table drop...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match database name '%s'. Operation cancelled.\n", input, dbName)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ dwhetl.Approver = (*InteractiveApprover)(nil)
