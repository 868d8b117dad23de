package ui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for dwhetl.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode determines whether dwhetl should run in interactive or non-interactive mode.
//
// Returns ModeNonInteractive if:
//   - DWHETL_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - stdin is not a terminal (piped input, cron)
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("DWHETL_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

// UseStyles reports whether output written to f should be styled.
// NO_COLOR disables styling regardless of the terminal.
func UseStyles(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
