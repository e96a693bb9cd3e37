// Package clipboard writes dictated text to the system clipboard and
// optionally pastes it into the focused app.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	cb "github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// System is the OS clipboard.
type System struct{}

func (System) Write(text string) error {
	if cb.Unsupported {
		return ErrUnavailable
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (System) Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnavailable
	}
	s, err := cb.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}

// Memory is an in-process clipboard for tests and -test mode.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
	fail   bool
}

// Fail makes subsequent writes return ErrUnavailable.
func (m *Memory) Fail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrUnavailable
	}
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
