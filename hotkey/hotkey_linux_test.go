package hotkey

import "testing"

func TestModStateMatchesExactly(t *testing.T) {
	c := MustParse("ctrl+shift+space")
	m := modState{}
	m.update(29, true, false) // left ctrl down
	if m.matches(c) {
		t.Error("matched with shift up")
	}
	m.update(54, true, false) // right shift down
	if !m.matches(c) {
		t.Error("no match with ctrl+shift held")
	}
	m.update(56, true, false) // alt down
	if m.matches(c) {
		t.Error("matched with extra alt held")
	}
	m.update(56, false, true)
	m.update(29, false, true)
	if m.matches(c) {
		t.Error("matched after ctrl release")
	}
	if m.update(57, true, false) {
		t.Error("space treated as modifier")
	}
}

func TestNewRejectsUnmappedKey(t *testing.T) {
	if _, err := New(Combo{Key: "pause"}); err == nil {
		t.Error("expected error")
	}
}
