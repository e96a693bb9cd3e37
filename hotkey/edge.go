package hotkey

import (
	"fmt"
	"sync"
	"time"
)

type EdgeKind int

const (
	Start EdgeKind = iota
	Stop
)

func (k EdgeKind) String() string {
	if k == Start {
		return "start"
	}
	return "stop"
}

type Edge struct {
	Kind EdgeKind
}

// Source turns raw key presses into recording edges. The adapter keeps
// its own idea of whether a recording is open, so it may emit a Stop the
// consumer has to ignore.
type Source struct {
	edges chan Edge
	stop  chan struct{}
	once  sync.Once
}

func newSource() *Source {
	return &Source{edges: make(chan Edge, 4), stop: make(chan struct{})}
}

func (s *Source) Edges() <-chan Edge { return s.edges }

// Close stops the adapter goroutine. It does not unregister the hotkey.
func (s *Source) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Source) emit(k EdgeKind) bool {
	select {
	case s.edges <- Edge{Kind: k}:
		return true
	case <-s.stop:
		return false
	}
}

// wait blocks for ch or Close, reporting false on Close.
func (s *Source) wait(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-s.stop:
		return false
	}
}

// NewHold is push-to-talk: press starts, release stops.
func NewHold(hk Hotkey) *Source {
	s := newSource()
	go func() {
		for {
			if !s.wait(hk.Keydown()) || !s.emit(Start) {
				return
			}
			if !s.wait(hk.Keyup()) || !s.emit(Stop) {
				return
			}
		}
	}()
	return s
}

// NewToggle starts on one press and stops on the next.
func NewToggle(hk Hotkey) *Source {
	s := newSource()
	go func() {
		recording := false
		for {
			select {
			case <-hk.Keydown():
				k := Start
				if recording {
					k = Stop
				}
				recording = !recording
				if !s.emit(k) {
					return
				}
			case <-hk.Keyup():
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

// NewHybrid starts on every press. Releasing after longPress stops
// (push-to-talk); a shorter tap keeps recording until the next press is
// released.
func NewHybrid(hk Hotkey, longPress time.Duration) *Source {
	s := newSource()
	go func() {
		for {
			if !s.wait(hk.Keydown()) || !s.emit(Start) {
				return
			}
			timer := time.NewTimer(longPress)
			select {
			case <-timer.C:
				if !s.wait(hk.Keyup()) {
					return
				}
			case <-hk.Keyup():
				timer.Stop()
				if !s.wait(hk.Keydown()) || !s.wait(hk.Keyup()) {
					return
				}
			case <-s.stop:
				timer.Stop()
				return
			}
			if !s.emit(Stop) {
				return
			}
		}
	}()
	return s
}

// NewSource picks the adapter for a hotkey.mode value.
func NewSource(mode string, hk Hotkey, longPress time.Duration) (*Source, error) {
	switch mode {
	case "", "hold", "ptt":
		return NewHold(hk), nil
	case "toggle":
		return NewToggle(hk), nil
	case "hybrid":
		return NewHybrid(hk, longPress), nil
	}
	return nil, fmt.Errorf("unknown hotkey mode %q", mode)
}
