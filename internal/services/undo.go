package services

import (
	"context"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

type undoStep struct {
	desc string
	fn   func(ctx context.Context) error
}

// undoStack records compensating actions for catalog writes.
type undoStack struct {
	steps  []undoStep
	logger mapimporter.Logger
}

func (u *undoStack) push(desc string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{desc: desc, fn: fn})
}

// unwind runs the recorded steps newest first. It keeps going after a
// failing step so that as much as possible is removed.
func (u *undoStack) unwind(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		u.logger.Verbose("Rolling back: %s", step.desc)
		if err := step.fn(ctx); err != nil {
			u.logger.Error("Rollback step %q failed: %v", step.desc, err)
		}
	}
	u.steps = nil
}
