package transcriber

import (
	"context"
	"sync"

	"voicemode/audio"
)

type FakeTranscriber struct {
	text string
	lang string
	err  error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Samples int
	Options Options
}

// NewFake returns an engine that always answers text/lang, or err if set.
func NewFake(text, lang string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, lang: lang, err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(_ context.Context, buf audio.Buffer, opts Options) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Samples: buf.Len(), Options: opts})
	f.mu.Unlock()
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Text: f.text, Language: f.lang, Duration: buf.Duration()}, nil
}

func (f *FakeTranscriber) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}
