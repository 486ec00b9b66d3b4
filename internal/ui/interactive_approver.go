package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// InteractiveApprover asks the user to type the target's name to confirm.
type InteractiveApprover struct {
	input  io.Reader
	output io.Writer
}

// NewInteractiveApprover creates an InteractiveApprover reading answers
// from input and writing prompts to output.
func NewInteractiveApprover(input io.Reader, output io.Writer) *InteractiveApprover {
	return &InteractiveApprover{input: input, output: output}
}

// RequestApproval prompts for the target name and approves on an exact match.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DELETE dataset '%s'\n", target)
	fmt.Fprintln(a.output, "Its resources, event memberships and relationships are removed too.")
	fmt.Fprintf(a.output, "\nTo confirm, type the dataset name '%s' and press Enter: ", target)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
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
		if input == target {
			fmt.Fprintln(a.output, "✓ Confirmed.")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match dataset name '%s'. Operation cancelled.\n", input, target)
		return false, nil
	}
}

var _ Approver = (*InteractiveApprover)(nil)
