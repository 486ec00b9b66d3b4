package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mapaction/mapimporter/internal/cli"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(mapimporter.ExitPanic)
		}
	}()

	if os.Getenv("MAPIMPORTER_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(mapimporter.ExitCodeForError(err))
	}
}
