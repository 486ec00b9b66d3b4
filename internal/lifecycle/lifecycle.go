// Package lifecycle decides what an import does with a map package given its
// declared status and whether a dataset with the derived name already exists.
package lifecycle

import "github.com/mapaction/mapimporter/pkg/mapimporter"

// Declared package statuses.
const (
	StatusNew        = "New"
	StatusUpdate     = "Update"
	StatusCorrection = "Correction"
)

// Conflict reasons carried by mapimporter.LifecycleConflictError.
const (
	ReasonAlreadyExists = "already exists"
	ReasonDoesNotExist  = "does not exist"
)

// Action is the outcome of Resolve.
type Action int

const (
	// ActionCreate registers a new dataset.
	ActionCreate Action = iota + 1
	// ActionUpdate rewrites the existing dataset in place.
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Resolve applies the status table:
//
//	           New      Update   Correction
//	absent     create   create   reject
//	exists     reject   reject   update
//
// Any status other than Correction follows the New column.
func Resolve(status, name string, exists bool) (Action, error) {
	if status == StatusCorrection {
		if !exists {
			return 0, &mapimporter.LifecycleConflictError{Status: status, Name: name, Reason: ReasonDoesNotExist}
		}
		return ActionUpdate, nil
	}

	if exists {
		return 0, &mapimporter.LifecycleConflictError{Status: status, Name: name, Reason: ReasonAlreadyExists}
	}
	return ActionCreate, nil
}
