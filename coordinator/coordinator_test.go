package coordinator

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"voicemode/audio"
	"voicemode/clipboard"
	"voicemode/config"
	"voicemode/history"
	"voicemode/hotkey"
	"voicemode/notify"
	"voicemode/state"
	"voicemode/transcriber"
)

type reply struct {
	res transcriber.Result
	err error
}

// scriptedEngine answers from a queue, repeating the last reply.
type scriptedEngine struct {
	mu      sync.Mutex
	replies []reply
	calls   []transcriber.Options
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Transcribe(_ context.Context, _ audio.Buffer, opts transcriber.Options) (transcriber.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, opts)
	r := e.replies[0]
	if len(e.replies) > 1 {
		e.replies = e.replies[1:]
	}
	return r.res, r.err
}

func (e *scriptedEngine) Calls() []transcriber.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

type upperRefiner struct{ err error }

func (r upperRefiner) Refine(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), r.err
}

type rig struct {
	m      *state.Machine
	c      *Coordinator
	actx   *audio.FakeContext
	engine *scriptedEngine
	cb     *clipboard.Memory
	note   *notify.Recorder
	hist   *history.Store

	mu     sync.Mutex
	states []state.AppState
}

func (r *rig) seen() []state.AppState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

func speech(seconds float64) audio.Buffer {
	n := int(16000 * seconds)
	s := make([]float32, n)
	for i := range s {
		s[i] = 0.1
	}
	return audio.Buffer{Samples: s, SampleRate: 16000}
}

func newRig(t *testing.T, buf audio.Buffer, cfgYAML string, refiner Refiner, replies ...reply) *rig {
	t.Helper()
	r := &rig{
		actx:   audio.NewFakeContext(buf, false),
		engine: &scriptedEngine{replies: replies},
		cb:     &clipboard.Memory{},
		note:   &notify.Recorder{},
	}
	hooks := map[state.AppState]state.Hooks{}
	for _, s := range state.All {
		hooks[s] = state.Hooks{OnEnter: func(state.Payload) error {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
			return nil
		}}
	}
	r.m = state.New(hooks)
	if err := r.m.TransitionTo(state.Idle, nil); err != nil {
		t.Fatal(err)
	}

	dev, err := r.actx.NewCapture(nil, audio.CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse([]byte(cfgYAML))
	if err != nil {
		t.Fatal(err)
	}
	hist, err := history.OpenInMemory(0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { hist.Close() })
	r.hist = hist

	r.c = New(r.m, Deps{
		Recorder:  audio.NewRecorder(dev, 16000),
		Engine:    r.engine,
		Refiner:   refiner,
		Clipboard: r.cb,
		Notifier:  r.note,
		History:   hist,
		Config:    cfg,
	})
	t.Cleanup(r.c.Close)
	return r
}

func (r *rig) cycle() {
	r.c.HandleStart()
	r.c.HandleStop()
	r.c.Wait()
}

func TestHappyPath(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hello world", Language: "en"}})
	r.cycle()

	want := []state.AppState{state.Idle, state.Recording, state.Processing, state.Copying, state.Idle}
	if got := r.seen(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
	if got, _ := r.cb.Read(); got != "hello world" {
		t.Errorf("clipboard = %q", got)
	}
	sent := r.note.Sent()
	if len(sent) != 1 {
		t.Fatalf("notifications = %+v", sent)
	}
	if sent[0].Title != "Voice Mode" || !strings.Contains(sent[0].Subtitle, "en") || sent[0].Message != "hello world" {
		t.Errorf("notification = %+v", sent[0])
	}
	if r.c.LastText() != "hello world" {
		t.Errorf("LastText = %q", r.c.LastText())
	}
	last, err := r.hist.Last()
	if err != nil || last.Text != "hello world" || last.Engine != "scripted" || last.Raw != "" {
		t.Errorf("history = (%+v, %v)", last, err)
	}
	if last.Audio != time.Second {
		t.Errorf("history audio = %v", last.Audio)
	}
}

func TestEngineOptionsFromConfig(t *testing.T) {
	cfg := "transcription:\n  language: auto\n  temperature: 0.3\n  initial_prompt: Kubernetes\n"
	r := newRig(t, speech(0.5), cfg, nil, reply{res: transcriber.Result{Text: "x", Language: "de"}})
	r.cycle()

	calls := r.engine.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	want := transcriber.Options{Language: "auto", Temperature: 0.3, Prompt: "Kubernetes"}
	if calls[0] != want {
		t.Errorf("options = %+v, want %+v", calls[0], want)
	}
}

func TestEmptyRecording(t *testing.T) {
	r := newRig(t, audio.Buffer{SampleRate: 16000}, "", nil, reply{res: transcriber.Result{Text: "unused"}})
	r.cycle()

	want := []state.AppState{state.Idle, state.Recording, state.Idle}
	if got := r.seen(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
	if n := len(r.engine.Calls()); n != 0 {
		t.Errorf("engine called %d times", n)
	}
	if len(r.note.Sent()) != 0 || r.cb.Writes() != 0 {
		t.Error("empty recording produced output")
	}
}

func TestModelNotLoadedThenRecover(t *testing.T) {
	r := newRig(t, speech(1), "", nil,
		reply{err: transcriber.ErrModelNotLoaded},
		reply{res: transcriber.Result{Text: "second try", Language: "en"}},
	)
	r.cycle()

	if !r.m.Is(state.Error) {
		t.Fatalf("state = %v, want ERROR", r.m.Current())
	}
	if msg := r.m.ErrorMessage(); msg != "model not loaded" {
		t.Errorf("ErrorMessage = %q", msg)
	}
	if p, ok := r.m.Payload().(state.ErrorPayload); !ok || p.Message != "model not loaded" {
		t.Errorf("payload = %#v", r.m.Payload())
	}
	if r.cb.Writes() != 0 {
		t.Error("clipboard written after failure")
	}

	r.c.HandleStart()
	if !r.m.Is(state.Error) {
		t.Fatalf("start in ERROR changed state to %v", r.m.Current())
	}

	if err := r.c.Recover(); err != nil {
		t.Fatal(err)
	}
	if !r.m.IsReady() {
		t.Fatalf("state after Recover = %v", r.m.Current())
	}
	r.cycle()
	if got, _ := r.cb.Read(); got != "second try" {
		t.Errorf("clipboard = %q", got)
	}
	if !r.m.IsReady() {
		t.Errorf("final state = %v", r.m.Current())
	}
}

func TestRefine(t *testing.T) {
	r := newRig(t, speech(1), "refine:\n  enabled: true\n", upperRefiner{},
		reply{res: transcriber.Result{Text: "hello", Language: "en"}})
	r.cycle()

	want := []state.AppState{state.Idle, state.Recording, state.Processing, state.Refining, state.Copying, state.Idle}
	if got := r.seen(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
	if got, _ := r.cb.Read(); got != "HELLO" {
		t.Errorf("clipboard = %q", got)
	}
	last, _ := r.hist.Last()
	if last.Text != "HELLO" || last.Raw != "hello" {
		t.Errorf("history = %+v", last)
	}
}

func TestRefineDisabledSkipsRefiner(t *testing.T) {
	r := newRig(t, speech(1), "", upperRefiner{}, reply{res: transcriber.Result{Text: "hello", Language: "en"}})
	r.cycle()
	if got, _ := r.cb.Read(); got != "hello" {
		t.Errorf("clipboard = %q", got)
	}
	if slices.Contains(r.seen(), state.Refining) {
		t.Error("entered REFINING with refine.enabled=false")
	}
}

func TestRefineFailure(t *testing.T) {
	r := newRig(t, speech(1), "refine:\n  enabled: true\n", upperRefiner{err: errors.New("rate limited")},
		reply{res: transcriber.Result{Text: "hello", Language: "en"}})
	r.cycle()
	if !r.m.Is(state.Error) || r.m.ErrorMessage() != "rate limited" {
		t.Errorf("state = %v, msg = %q", r.m.Current(), r.m.ErrorMessage())
	}
}

func TestClipboardFailure(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hello", Language: "en"}})
	r.cb.Fail(true)
	r.cycle()

	if !r.m.Is(state.Error) {
		t.Fatalf("state = %v, want ERROR", r.m.Current())
	}
	if !strings.Contains(r.m.ErrorMessage(), "clipboard unavailable") {
		t.Errorf("ErrorMessage = %q", r.m.ErrorMessage())
	}
	if len(r.note.Sent()) != 0 {
		t.Error("success notification after clipboard failure")
	}
	if _, err := r.hist.Last(); !errors.Is(err, history.ErrEmpty) {
		t.Errorf("history written after failure: %v", err)
	}
}

func TestStartWhileBusyIgnored(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hi", Language: "en"}})
	r.c.HandleStart()
	r.c.HandleStart()
	if !r.m.Is(state.Recording) {
		t.Fatalf("state = %v, want RECORDING", r.m.Current())
	}
	r.c.HandleStop()
	r.c.Wait()

	if n := len(r.engine.Calls()); n != 1 {
		t.Errorf("engine calls = %d", n)
	}
	n := 0
	for _, s := range r.seen() {
		if s == state.Recording {
			n++
		}
	}
	if n != 1 {
		t.Errorf("entered RECORDING %d times", n)
	}
}

func TestStopWithoutStartIgnored(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hi"}})
	r.c.HandleStop()
	r.c.Wait()
	if !r.m.IsReady() || len(r.engine.Calls()) != 0 {
		t.Errorf("state = %v, calls = %d", r.m.Current(), len(r.engine.Calls()))
	}
}

func TestRecorderStartFailure(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hi"}})
	r.actx.FailStart(errors.New("device busy"))
	r.c.HandleStart()

	want := []state.AppState{state.Idle, state.Recording, state.Idle}
	if got := r.seen(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
}

func TestPauseResume(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "hi", Language: "en"}})
	r.c.HandleStart()
	if err := r.c.Pause(); err != nil {
		t.Fatal(err)
	}
	if !r.m.Is(state.Paused) {
		t.Fatalf("state = %v", r.m.Current())
	}
	r.c.HandleStart()
	r.c.HandleStop()
	r.c.Wait()
	if !r.m.Is(state.Paused) || len(r.engine.Calls()) != 0 {
		t.Fatalf("paused machine recorded: state %v, calls %d", r.m.Current(), len(r.engine.Calls()))
	}

	if err := r.c.Resume(); err != nil {
		t.Fatal(err)
	}
	r.cycle()
	if got, _ := r.cb.Read(); got != "hi" {
		t.Errorf("clipboard after resume = %q", got)
	}
}

// gatedEngine blocks every call until release, ignoring cancellation.
type gatedEngine struct {
	release chan reply
	entered chan struct{}
}

func (e *gatedEngine) Name() string { return "gated" }

func (e *gatedEngine) Transcribe(_ context.Context, _ audio.Buffer, _ transcriber.Options) (transcriber.Result, error) {
	e.entered <- struct{}{}
	r := <-e.release
	return r.res, r.err
}

func TestPauseAbandonsCycle(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
	}{
		{"late failure", reply{err: errors.New("model not loaded")}},
		{"late success", reply{res: transcriber.Result{Text: "stale", Language: "en"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "fresh", Language: "en"}})
			gated := &gatedEngine{release: make(chan reply), entered: make(chan struct{}, 1)}
			r.c.deps.Engine = gated

			r.c.HandleStart()
			r.c.HandleStop()
			<-gated.entered
			if err := r.c.Pause(); err != nil {
				t.Fatal(err)
			}
			if err := r.c.Resume(); err != nil {
				t.Fatal(err)
			}
			r.c.HandleStart()
			if !r.m.Is(state.Recording) {
				t.Fatalf("new cycle did not start: %v", r.m.Current())
			}

			gated.release <- tt.reply
			r.c.Wait()
			if !r.m.Is(state.Recording) {
				t.Fatalf("abandoned worker moved the machine to %v", r.m.Current())
			}
			if n := r.cb.Writes(); n != 0 {
				t.Errorf("abandoned worker wrote the clipboard %d times", n)
			}

			r.c.deps.Engine = r.engine
			r.c.HandleStop()
			r.c.Wait()
			if !r.m.Is(state.Idle) {
				t.Fatalf("state after new cycle = %v", r.m.Current())
			}
			if got, _ := r.cb.Read(); got != "fresh" {
				t.Errorf("clipboard = %q, want the new cycle's text", got)
			}

			r.c.HandleStart()
			if !r.m.Is(state.Recording) {
				t.Errorf("recorder stuck after abandoned cycle: %v", r.m.Current())
			}
		})
	}
}

func TestCopyLast(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "again", Language: "en"}})
	if err := r.c.CopyLast(); !errors.Is(err, ErrNothingCopied) {
		t.Errorf("got %v, want ErrNothingCopied", err)
	}
	r.cycle()
	r.cb.Write("something else")
	if err := r.c.CopyLast(); err != nil {
		t.Fatal(err)
	}
	if got, _ := r.cb.Read(); got != "again" {
		t.Errorf("clipboard = %q", got)
	}
}

func TestRun(t *testing.T) {
	r := newRig(t, speech(1), "", nil, reply{res: transcriber.Result{Text: "from edges", Language: "en"}})
	ctx, cancel := context.WithCancel(context.Background())
	edges := make(chan hotkey.Edge)
	done := make(chan struct{})
	go func() {
		r.c.Run(ctx, edges)
		close(done)
	}()

	edges <- hotkey.Edge{Kind: hotkey.Start}
	edges <- hotkey.Edge{Kind: hotkey.Stop}
	deadline := time.After(2 * time.Second)
	for {
		if got, _ := r.cb.Read(); got == "from edges" && r.m.IsReady() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("cycle did not finish: state %v", r.m.Current())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 150)
	for _, tt := range []struct {
		name, in, want string
	}{
		{"short", "hello", "hello"},
		{"exact", strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"long", long, strings.Repeat("é", 100) + "..."},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.in); got != tt.want {
				t.Errorf("Preview = %q, want %q", got, tt.want)
			}
		})
	}
}
