package state

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hooks are the optional side effects bound to a state. OnExit runs before
// the machine leaves the state, OnEnter after it has entered it.
type Hooks struct {
	OnEnter func(p Payload) error
	OnExit  func() error
}

// HistoryEntry records one successful transition.
type HistoryEntry struct {
	State AppState
	At    time.Time
}

type Option func(*Machine)

// WithClock replaces time.Now for history timestamps and Duration.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// Machine is the application state machine. All methods are safe for
// concurrent use; transitions are serialized so hooks of one transition
// never interleave with another.
//
// Hooks may query the machine but must not call TransitionTo synchronously.
type Machine struct {
	hooks  map[AppState]Hooks
	now    func() time.Time
	logger zerolog.Logger

	// tmu serializes transitions end to end, including hook execution.
	tmu sync.Mutex

	mu       sync.RWMutex
	current  AppState
	previous AppState
	payload  Payload
	history  []HistoryEntry
	created  time.Time
}

// New builds a machine in Initializing. The hook table is copied and
// cannot be changed afterwards.
func New(hooks map[AppState]Hooks, opts ...Option) *Machine {
	m := &Machine{
		hooks:  make(map[AppState]Hooks, len(hooks)),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for s, h := range hooks {
		mustValid(s)
		m.hooks[s] = h
	}
	for _, o := range opts {
		o(m)
	}
	m.current = Initializing
	m.previous = Initializing
	m.created = m.now()
	return m
}

// TransitionTo moves the machine to target. Moves outside the transition
// table return a *TransitionError and leave the machine untouched.
func (m *Machine) TransitionTo(target AppState, p Payload) error {
	mustValid(target)

	m.tmu.Lock()
	defer m.tmu.Unlock()

	m.mu.RLock()
	from := m.current
	m.mu.RUnlock()

	if !CanTransition(from, target) {
		m.logger.Warn().
			Str("from", from.String()).
			Str("to", target.String()).
			Msg("invalid_transition")
		return &TransitionError{From: from, To: target}
	}

	if h := m.hooks[from]; h.OnExit != nil {
		m.runHook(from, "exit", h.OnExit)
	}

	m.mu.Lock()
	m.previous = from
	m.current = target
	m.payload = p
	m.history = append(m.history, HistoryEntry{State: target, At: m.now()})
	m.mu.Unlock()

	m.logger.Info().
		Str("from", from.String()).
		Str("to", target.String()).
		Msg("transition")

	if h := m.hooks[target]; h.OnEnter != nil {
		m.runHook(target, "enter", func() error { return h.OnEnter(p) })
	}
	return nil
}

func (m *Machine) runHook(s AppState, phase string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("state", s.String()).
				Str("hook", phase).
				Interface("panic", r).
				Msg("hook_panic")
		}
	}()
	if err := fn(); err != nil {
		m.logger.Error().
			Err(err).
			Str("state", s.String()).
			Str("hook", phase).
			Msg("hook_failed")
	}
}

// Reset forces Idle without running hooks or recording history.
func (m *Machine) Reset() {
	m.tmu.Lock()
	defer m.tmu.Unlock()
	m.mu.Lock()
	m.current = Idle
	m.previous = Initializing
	m.payload = nil
	m.mu.Unlock()
}

func (m *Machine) Current() AppState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Previous is the state before the current one.
func (m *Machine) Previous() AppState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// Is reports whether the current state is any of states.
func (m *Machine) Is(states ...AppState) bool {
	cur := m.Current()
	for _, s := range states {
		if s == cur {
			return true
		}
	}
	return false
}

func (m *Machine) IsBusy() bool { return m.Current().Busy() }

func (m *Machine) IsReady() bool { return m.Current() == Idle }

func (m *Machine) Payload() Payload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payload
}

// ErrorMessage returns the message of the current ErrorPayload, if any.
func (m *Machine) ErrorMessage() string {
	if ep, ok := m.Payload().(ErrorPayload); ok {
		return ep.Message
	}
	return ""
}

// Duration is the time spent since the last recorded transition.
func (m *Machine) Duration() time.Duration {
	m.mu.RLock()
	since := m.created
	if n := len(m.history); n > 0 {
		since = m.history[n-1].At
	}
	m.mu.RUnlock()
	return m.now().Sub(since)
}

func (m *Machine) History() []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}
