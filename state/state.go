package state

import "fmt"

// AppState is the application's single current mode.
type AppState int

const (
	Initializing AppState = iota
	Idle
	Recording
	Processing
	Refining
	Copying
	Error
	Paused

	numStates
)

// All lists every state in declaration order.
var All = []AppState{Initializing, Idle, Recording, Processing, Refining, Copying, Error, Paused}

var names = [numStates]string{
	Initializing: "INITIALIZING",
	Idle:         "IDLE",
	Recording:    "RECORDING",
	Processing:   "PROCESSING",
	Refining:     "REFINING",
	Copying:      "COPYING",
	Error:        "ERROR",
	Paused:       "PAUSED",
}

var descriptions = [numStates]string{
	Initializing: "Starting up...",
	Idle:         "Ready to dictate",
	Recording:    "Recording...",
	Processing:   "Transcribing...",
	Refining:     "Refining...",
	Copying:      "Copying to clipboard...",
	Error:        "Error occurred",
	Paused:       "Paused",
}

func (s AppState) Valid() bool { return s >= 0 && s < numStates }

func (s AppState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("AppState(%d)", int(s))
	}
	return names[s]
}

// Description is the human-readable status line for s.
func (s AppState) Description() string {
	if !s.Valid() {
		return ""
	}
	return descriptions[s]
}

// Busy reports whether s is part of an active recording cycle.
func (s AppState) Busy() bool {
	switch s {
	case Recording, Processing, Refining, Copying:
		return true
	}
	return false
}

// Payload is data attached to a transition. Only types in this package
// implement it.
type Payload interface {
	payload()
}

// ErrorPayload accompanies a transition to Error.
type ErrorPayload struct {
	Message string
}

func (ErrorPayload) payload() {}

var transitions = map[AppState][]AppState{
	Initializing: {Idle},
	Idle:         {Recording},
	Recording:    {Processing, Idle},
	Processing:   {Refining, Copying},
	Refining:     {Copying},
	Copying:      {Idle},
}

// CanTransition reports whether from -> to is a legal move. It panics on
// states outside the enumeration.
func CanTransition(from, to AppState) bool {
	mustValid(from)
	mustValid(to)
	if to == Error || to == Paused {
		return true
	}
	if (from == Error || from == Paused) && to == Idle {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func mustValid(s AppState) {
	if !s.Valid() {
		panic(&UnknownStateError{State: s})
	}
}
