package audio

import (
	"fmt"
	"sync"
)

// ChunkFunc is called from the capture thread with each converted chunk
// and its RMS level. It must not block.
type ChunkFunc func(chunk []float32, level float64)

// Recorder accumulates captured audio between Start and Stop.
type Recorder struct {
	dev        CaptureDevice
	sampleRate int

	mu        sync.Mutex
	recording bool
	samples   []float32
	onChunk   ChunkFunc
}

func NewRecorder(dev CaptureDevice, sampleRate int) *Recorder {
	return &Recorder{dev: dev, sampleRate: sampleRate}
}

func (r *Recorder) OnChunk(fn ChunkFunc) {
	r.mu.Lock()
	r.onChunk = fn
	r.mu.Unlock()
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.recording = true
	r.samples = nil
	r.mu.Unlock()

	r.dev.SetCallback(r.handle)
	if err := r.dev.Start(); err != nil {
		r.dev.ClearCallback()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// Stop ends capture and hands over everything recorded. The returned
// buffer is empty if no audio arrived.
func (r *Recorder) Stop() (Buffer, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Buffer{}, ErrNotRecording
	}
	r.mu.Unlock()

	r.dev.Stop()
	r.dev.ClearCallback()

	r.mu.Lock()
	buf := Buffer{Samples: r.samples, SampleRate: r.sampleRate}
	r.samples = nil
	r.recording = false
	r.mu.Unlock()
	return buf, nil
}

func (r *Recorder) handle(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}
	chunk := PCM16ToFloat32(data)

	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.samples = append(r.samples, chunk...)
	fn := r.onChunk
	r.mu.Unlock()

	if fn != nil {
		fn(chunk, RMS(chunk))
	}
}
