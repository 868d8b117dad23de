package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/dwhetl/internal/cli"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(dwhetl.ExitPanic)
		}
	}()

	if os.Getenv("DWHETL_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(dwhetl.ExitCodeForError(err))
	}
}
