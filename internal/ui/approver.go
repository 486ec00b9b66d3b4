// Package ui asks a person to confirm destructive catalog operations.
package ui

import "context"

// Approver confirms an operation that destroys the named target.
type Approver interface {
	RequestApproval(ctx context.Context, target string) (bool, error)
}
