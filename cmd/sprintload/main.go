package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/pmi-ops/sprintload/internal/cli"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(sprintload.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(sprintload.ExitCodeForError(err))
	}
}
