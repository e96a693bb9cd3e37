package audio

import (
	"encoding/binary"
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext serves captures that replay fixed PCM instead of a microphone.
type FakeContext struct {
	pcm        []byte
	sampleRate int
	realtime   bool
	startErr   error
}

// NewFakeContext replays buf. With realtime set, chunks arrive at the
// buffer's sample rate and silence follows the audio until Stop;
// otherwise the whole buffer is delivered inside Start.
func NewFakeContext(buf Buffer, realtime bool) *FakeContext {
	pcm16 := Float32ToPCM16(buf.Samples)
	pcm := make([]byte, len(pcm16)*2)
	for i, s := range pcm16 {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &FakeContext{pcm: pcm, sampleRate: buf.SampleRate, realtime: realtime}
}

// FailStart makes every capture's Start return err.
func (f *FakeContext) FailStart(err error) { f.startErr = err }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{ctx: f, audioDone: make(chan struct{})}, nil
}

type FakeCapture struct {
	ctx       *FakeContext
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the replayed audio has been fully delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+fakeFrameSize*2, len(f.ctx.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.ctx.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/2))
	return end
}

func (f *FakeCapture) Start() error {
	if f.ctx.startErr != nil {
		return f.ctx.startErr
	}
	f.mu.Lock()
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	audioDone := f.audioDone
	f.mu.Unlock()

	if !f.ctx.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.ctx.pcm); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(audioDone)
		close(f.feedDone)
		return nil
	}

	rate := f.ctx.sampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(rate)
	go func(stop, done chan struct{}) {
		defer close(done)
		pos := 0
		silence := make([]byte, fakeFrameSize*2)
		finished := false
		for {
			if cb := f.callback(); cb != nil {
				if pos < len(f.ctx.pcm) {
					pos = f.feedChunk(cb, pos)
				} else {
					if !finished {
						finished = true
						close(audioDone)
					}
					cb(silence, fakeFrameSize)
				}
			}
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}(f.stopCh, f.feedDone)
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stopCh, f.feedDone
	f.mu.Unlock()
	if stop == nil {
		return
	}
	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done

	f.mu.Lock()
	select {
	case <-f.audioDone:
		f.audioDone = make(chan struct{}) // reset for replay
	default:
	}
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}
