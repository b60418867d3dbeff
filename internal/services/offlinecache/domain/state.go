package domain

import "fmt"

// State is the worker lifecycle phase.
type State int32

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	// StateRedundant is terminal: install or activation failed.
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var allowedTransitions = map[State][]State{
	StateNew:        {StateInstalling},
	StateInstalling: {StateInstalled, StateRedundant},
	StateInstalled:  {StateActivating},
	StateActivating: {StateActive, StateRedundant},
}

// Transition validates moving from one lifecycle state to another.
func Transition(from State, to State) (State, error) {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
