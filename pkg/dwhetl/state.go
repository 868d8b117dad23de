package dwhetl

import "fmt"

// RunState is the position of a run in its state machine:
//
//	NotStarted → DroppingTables → CreatingTables → LoadingStaging → TransformingData → Completed
//
// Any non-terminal state may move to Failed. Failed and Completed are terminal.
type RunState int

const (
	StateNotStarted RunState = iota
	StateDroppingTables
	StateCreatingTables
	StateLoadingStaging
	StateTransformingData
	StateCompleted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateDroppingTables:
		return "DroppingTables"
	case StateCreatingTables:
		return "CreatingTables"
	case StateLoadingStaging:
		return "LoadingStaging"
	case StateTransformingData:
		return "TransformingData"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition is possible.
func (s RunState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// StateFor returns the working state that executes the given category.
func StateFor(c Category) RunState {
	switch c {
	case CategoryDrop:
		return StateDroppingTables
	case CategoryCreate:
		return StateCreatingTables
	case CategoryCopy:
		return StateLoadingStaging
	default:
		return StateTransformingData
	}
}

// CanTransition reports whether moving from s to next is allowed.
// Stages only move forward; skipping a stage (a partial run such as
// create-tables or etl) is a forward move.
func (s RunState) CanTransition(next RunState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	return next > s && next <= StateCompleted
}
