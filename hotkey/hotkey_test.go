package hotkey

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		in, want, label string
	}{
		{"ctrl+shift+space", "ctrl+shift+space", "Ctrl+Shift+Space"},
		{"Shift+Ctrl+Space", "ctrl+shift+space", "Ctrl+Shift+Space"},
		{"cmd+opt+d", "alt+super+d", "Alt+Super+D"},
		{"f9", "f9", "F9"},
		{"control + enter", "ctrl+return", "Ctrl+Return"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if c.String() != tt.want {
				t.Errorf("String() = %q, want %q", c.String(), tt.want)
			}
			if c.Label() != tt.label {
				t.Errorf("Label() = %q, want %q", c.Label(), tt.label)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "ctrl+shift", "ctrl++space", "ctrl+ctrl+a", "a+b", "ctrl+capslock", "f13"} {
		t.Run(in, func(t *testing.T) {
			if _, err := Parse(in); !errors.Is(err, ErrInvalidCombo) {
				t.Errorf("Parse(%q) = %v, want ErrInvalidCombo", in, err)
			}
		})
	}
}

func TestComboHas(t *testing.T) {
	c := MustParse("ctrl+shift+space")
	if !c.Has(ModCtrl) || !c.Has(ModShift) || c.Has(ModAlt) {
		t.Errorf("Has mismatch for %v", c.Mods)
	}
}

func nextEdge(t *testing.T, s *Source) EdgeKind {
	t.Helper()
	select {
	case e := <-s.Edges():
		return e.Kind
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for edge")
		return 0
	}
}

func noEdge(t *testing.T, s *Source, wait time.Duration) {
	t.Helper()
	select {
	case e := <-s.Edges():
		t.Fatalf("unexpected %v edge", e.Kind)
	case <-time.After(wait):
	}
}

func TestHold(t *testing.T) {
	fk := NewFake()
	s := NewHold(fk)
	defer s.Close()

	for range 2 {
		fk.SimKeydown()
		if k := nextEdge(t, s); k != Start {
			t.Fatalf("got %v, want start", k)
		}
		fk.SimKeyup()
		if k := nextEdge(t, s); k != Stop {
			t.Fatalf("got %v, want stop", k)
		}
	}
}

func TestToggle(t *testing.T) {
	fk := NewFake()
	s := NewToggle(fk)
	defer s.Close()

	var got []EdgeKind
	for range 4 {
		fk.SimTap()
		got = append(got, nextEdge(t, s))
	}
	if want := []EdgeKind{Start, Stop, Start, Stop}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestHybridLongPress(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	s := NewHybrid(fk, threshold)
	defer s.Close()

	fk.SimKeydown()
	if k := nextEdge(t, s); k != Start {
		t.Fatalf("got %v, want start", k)
	}
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	if k := nextEdge(t, s); k != Stop {
		t.Fatalf("got %v, want stop", k)
	}
}

func TestHybridShortTap(t *testing.T) {
	fk := NewFake()
	s := NewHybrid(fk, 200*time.Millisecond)
	defer s.Close()

	fk.SimTap()
	if k := nextEdge(t, s); k != Start {
		t.Fatalf("got %v, want start", k)
	}
	noEdge(t, s, 50*time.Millisecond)

	fk.SimTap()
	if k := nextEdge(t, s); k != Stop {
		t.Fatalf("got %v, want stop", k)
	}
}

func TestHybridMultipleCycles(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	s := NewHybrid(fk, threshold)
	defer s.Close()

	// hold
	fk.SimKeydown()
	nextEdge(t, s)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	if k := nextEdge(t, s); k != Stop {
		t.Fatalf("cycle 1: got %v", k)
	}

	// tap, tap
	fk.SimTap()
	nextEdge(t, s)
	time.Sleep(20 * time.Millisecond)
	fk.SimTap()
	if k := nextEdge(t, s); k != Stop {
		t.Fatalf("cycle 2: got %v", k)
	}

	// hold again
	fk.SimKeydown()
	if k := nextEdge(t, s); k != Start {
		t.Fatalf("cycle 3: got %v", k)
	}
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	if k := nextEdge(t, s); k != Stop {
		t.Fatalf("cycle 3: got %v", k)
	}
}

func TestSourceClose(t *testing.T) {
	fk := NewFake()
	s := NewHold(fk)
	s.Close()
	s.Close()
	time.Sleep(10 * time.Millisecond)
	fk.SimKeydown()
	noEdge(t, s, 30*time.Millisecond)
}

func TestNewSource(t *testing.T) {
	fk := NewFake()
	for _, mode := range []string{"", "hold", "ptt", "toggle", "hybrid"} {
		s, err := NewSource(mode, fk, time.Second)
		if err != nil {
			t.Errorf("mode %q: %v", mode, err)
			continue
		}
		s.Close()
	}
	if _, err := NewSource("double-tap", fk, time.Second); err == nil {
		t.Error("expected error for unknown mode")
	}
}
