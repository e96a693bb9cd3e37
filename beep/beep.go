// Package beep plays short audio cues for recording start, stop and
// failure.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

// Disable silences all cues, for output.sounds=false and tests.
func Disable() { disabled.Store(true) }

func Enable() { disabled.Store(false) }

func Enabled() bool { return !disabled.Load() }

type Cue int

const (
	Start Cue = iota
	Stop
	Error
)

func (c Cue) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	}
	return "error"
}

const (
	sampleRate = 44100

	// start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// stop: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// Play queues c on the output device and returns without waiting.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	Init()
	play(c)
}

// cueSamples renders c as mono S16. startDur and endDur differ per
// platform; macOS output latency is low enough for shorter ticks.
func cueSamples(c Cue, startDur, endDur float64) []int16 {
	switch c {
	case Start:
		return generateTick(sampleRate, startFreq, startDur, startVolume, startDecay)
	case Stop:
		return generateTick(sampleRate, endFreq, endDur, endVolume, endDecay)
	}
	return generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
