// Package tui decides whether output goes to a human at a terminal and
// holds the styles used when it does.
package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode of the CLI.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and piped output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode returns ModeNonInteractive if:
//   - MAPIMPORTER_NON_INTERACTIVE=1 is set
//   - CI is set
//   - NO_COLOR is set
//   - stdout is not a terminal
//
// and ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("MAPIMPORTER_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
