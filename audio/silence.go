package audio

import "time"

const (
	silenceTick         = 100 * time.Millisecond
	silenceWarnEvery    = 8 * time.Second
	silenceAutoCloseDur = 30 * time.Second
	speechMinRatio      = 0.10
	speechClearRatio    = 0.25 // higher threshold to clear warning (hysteresis)

	// SpeechLevel is the RMS above which a tick counts as speech.
	SpeechLevel = 0.01
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice detected
	SilenceWarnClear              // speech resumed after warning
	SilenceRepeat                 // repeat cue (every 8s)
	SilenceAutoClose              // 30s without speech, toggle mode only
)

func (e SilenceEvent) String() string {
	switch e {
	case SilenceWarn:
		return "warn"
	case SilenceWarnClear:
		return "warn_clear"
	case SilenceRepeat:
		return "repeat"
	case SilenceAutoClose:
		return "auto_close"
	}
	return "none"
}

// SilenceMonitor watches a recording for stretches without speech. It is
// fed chunk levels and works in audio time, so it is deterministic for
// replayed input.
type SilenceMonitor struct {
	warnAt   int
	windowSz int
	toggle   bool

	ticks       int
	window      []bool
	speechCount int
	warned      bool
	lastBeep    int

	pending time.Duration
	peak    float64
}

// NewSilenceMonitor returns a monitor. Repeat cues and auto-close only
// fire when toggle is set; a held key already bounds the recording.
func NewSilenceMonitor(toggle bool) *SilenceMonitor {
	windowSz := int(silenceAutoCloseDur / silenceTick)
	return &SilenceMonitor{
		warnAt:   int(silenceWarnEvery / silenceTick),
		windowSz: windowSz,
		toggle:   toggle,
		window:   make([]bool, windowSz),
	}
}

// Feed accounts for d of audio at the given level and returns the most
// significant event raised by the ticks it completes.
func (m *SilenceMonitor) Feed(level float64, d time.Duration) SilenceEvent {
	m.peak = max(m.peak, level)
	m.pending += d
	ev := SilenceNone
	for m.pending >= silenceTick {
		m.pending -= silenceTick
		if e := m.Tick(m.peak >= SpeechLevel); e > ev {
			ev = e
		}
		m.peak = 0
	}
	return ev
}

func (m *SilenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

// Tick records one 100ms slot.
func (m *SilenceMonitor) Tick(hasSpeech bool) SilenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = hasSpeech
	if hasSpeech {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)

	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		m.lastBeep = m.ticks
		return SilenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceWarnClear
	}

	if !m.toggle {
		return SilenceNone
	}

	// checked before repeat
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return SilenceAutoClose
	}

	if m.warned && m.ticks-m.lastBeep >= m.warnAt {
		m.lastBeep = m.ticks
		return SilenceRepeat
	}
	return SilenceNone
}

// Warned reports whether a no-voice warning is active.
func (m *SilenceMonitor) Warned() bool { return m.warned }
