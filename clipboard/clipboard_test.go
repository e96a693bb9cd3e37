package clipboard

import (
	"errors"
	"testing"
)

func TestMemory(t *testing.T) {
	var m Memory
	if err := m.Write("hello"); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Read(); got != "hello" {
		t.Errorf("Read = %q", got)
	}
	m.Fail(true)
	if err := m.Write("again"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
	if got, _ := m.Read(); got != "hello" {
		t.Errorf("failed write changed contents: %q", got)
	}
	if m.Writes() != 1 {
		t.Errorf("Writes = %d, want 1", m.Writes())
	}
}
