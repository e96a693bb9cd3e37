package history

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func openTest(t *testing.T, max int) *Store {
	t.Helper()
	s, err := OpenInMemory(max)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTest(t, 0)
	for i := range 5 {
		if _, err := s.Add(Entry{Text: fmt.Sprintf("t%d", i), Language: "en"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, e := range got {
		texts = append(texts, e.Text)
	}
	if strings.Join(texts, ",") != "t4,t3,t2" {
		t.Errorf("Recent(3) = %v", texts)
	}
}

func TestLast(t *testing.T) {
	s := openTest(t, 0)
	if _, err := s.Last(); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty store: got %v, want ErrEmpty", err)
	}
	added, err := s.Add(Entry{Text: "hello world", Raw: "hello world", Language: "en", Engine: "fake"})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == "" || added.At.IsZero() {
		t.Errorf("Add did not fill ID/At: %+v", added)
	}
	last, err := s.Last()
	if err != nil {
		t.Fatal(err)
	}
	if last.ID != added.ID || last.Text != "hello world" || last.Engine != "fake" {
		t.Errorf("Last = %+v", last)
	}
}

func TestTrim(t *testing.T) {
	s := openTest(t, 3)
	for i := range 6 {
		if _, err := s.Add(Entry{Text: fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	got, _ := s.Recent(10)
	if len(got) != 3 || got[2].Text != "t3" {
		t.Errorf("oldest kept = %+v", got)
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	s, err := Open(dir, 0, zerolog.New(&logs))
	if err != nil {
		t.Fatal(err)
	}
	s.Add(Entry{Text: "persisted"})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, 0, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	last, err := s.Last()
	if err != nil || last.Text != "persisted" {
		t.Errorf("after reopen: (%+v, %v)", last, err)
	}
}
