package build

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when the orchestrator is asked to move
// between two states that are not connected.
var ErrInvalidTransition = errors.New("invalid build state transition")

// State is the phase a build is in.
type State int

const (
	Idle State = iota
	Compiling
	GeneratingBindings
	Bundling
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Compiling:
		return "compiling"
	case GeneratingBindings:
		return "generating bindings"
	case Bundling:
		return "bundling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == Done || s == Failed
}

func isAllowedTransition(from, to State) bool {
	if to == Failed {
		return !from.IsTerminal()
	}
	switch from {
	case Idle:
		return to == Compiling
	case Compiling:
		return to == GeneratingBindings
	case GeneratingBindings:
		return to == Bundling
	case Bundling:
		return to == Done
	default:
		return false
	}
}

// Transition validates the move from -> to and returns the new state.
func Transition(from, to State) (State, error) {
	if !isAllowedTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}
