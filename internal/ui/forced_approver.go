package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// ForcedApprover approves without asking after a countdown, used when the
// --force flag is provided. The countdown leaves room for Ctrl+C.
type ForcedApprover struct {
	output    io.Writer
	sleepFn   func(time.Duration)
	countdown time.Duration
}

// ForcedOption configures a ForcedApprover.
type ForcedOption func(*ForcedApprover)

// WithCountdown overrides mapimporter.DefaultForceApprovalCountdown.
func WithCountdown(d time.Duration) ForcedOption {
	return func(a *ForcedApprover) { a.countdown = d }
}

// NewForcedApprover creates a ForcedApprover writing its warning to output.
func NewForcedApprover(output io.Writer, opts ...ForcedOption) *ForcedApprover {
	a := &ForcedApprover{
		output:    output,
		sleepFn:   time.Sleep,
		countdown: mapimporter.DefaultForceApprovalCountdown,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestApproval displays a countdown and approves when it ends.
func (a *ForcedApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, "\nDANGER: dataset '%s' and all of its resources will be deleted.\n\n", target)

	for i := int(a.countdown.Seconds()); i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDeleting in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with deletion of '%s'...                    \n", target)
	return true, nil
}

var _ Approver = (*ForcedApprover)(nil)
