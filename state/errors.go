package state

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError is returned for a move not in the transition table.
type TransitionError struct {
	From, To AppState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// UnknownStateError is the panic value used when a state outside the
// enumeration reaches the machine.
type UnknownStateError struct {
	State AppState
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %d", int(e.State))
}
