package beep

import "testing"

func TestCueSamples(t *testing.T) {
	start := cueSamples(Start, 0.03, 0.05)
	stop := cueSamples(Stop, 0.03, 0.05)
	errCue := cueSamples(Error, 0.03, 0.05)

	if want := int(sampleRate * 0.03); len(start) != want {
		t.Errorf("start len = %d, want %d", len(start), want)
	}
	if len(stop) <= len(start) {
		t.Errorf("stop (%d) should outlast start (%d)", len(stop), len(start))
	}
	beep := int(sampleRate * 0.08)
	gap := int(sampleRate * 0.05)
	if len(errCue) != 2*beep+gap {
		t.Errorf("error len = %d, want %d", len(errCue), 2*beep+gap)
	}
	for i := beep; i < beep+gap; i++ {
		if errCue[i] != 0 {
			t.Fatalf("gap not silent at %d", i)
		}
	}
}

func TestTickDecays(t *testing.T) {
	s := generateTick(sampleRate, 1000, 0.2, 0.5, 40)
	peak := func(from, to int) int {
		var m int
		for _, v := range s[from:to] {
			m = max(m, int(v), -int(v))
		}
		return m
	}
	head, tail := peak(0, 441), peak(len(s)-441, len(s))
	if head <= tail || head > 32767/2+1 {
		t.Errorf("head peak %d, tail peak %d", head, tail)
	}
}

func TestDisable(t *testing.T) {
	Disable()
	defer Enable()
	if Enabled() {
		t.Fatal("still enabled")
	}
	Play(Start) // must not touch the audio device
}
