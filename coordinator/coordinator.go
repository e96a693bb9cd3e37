// Package coordinator drives one dictation cycle: it reacts to hotkey
// edges, owns the recorder, and hands finished audio to a background
// worker that transcribes, refines, copies and notifies.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicemode/audio"
	"voicemode/history"
	"voicemode/hotkey"
	"voicemode/log"
	"voicemode/state"
	"voicemode/transcriber"
)

const (
	NotifyTitle     = "Voice Mode"
	ErrorTitle      = "Voice Mode Error"
	ErrorSubtitle   = "An error occurred"
	previewRunes    = 100
	defaultLanguage = "en"
)

var ErrNothingCopied = errors.New("nothing transcribed yet")

type Recorder interface {
	Start() error
	Stop() (audio.Buffer, error)
}

type Engine interface {
	Name() string
	Transcribe(ctx context.Context, buf audio.Buffer, opts transcriber.Options) (transcriber.Result, error)
}

type Refiner interface {
	Refine(ctx context.Context, text string) (string, error)
}

type Clipboard interface {
	Write(text string) error
}

type Paster interface {
	Paste() error
}

type Notifier interface {
	Notify(title, subtitle, message string) error
}

type History interface {
	Add(e history.Entry) (history.Entry, error)
}

// Config is read on every cycle so edits apply without a restart.
type Config interface {
	String(key, def string) string
	Float(key string, def float64) float64
	Bool(key string, def bool) bool
}

// Deps are the collaborators. Refiner, Paster, History and Notifier may
// be nil.
type Deps struct {
	Recorder  Recorder
	Engine    Engine
	Refiner   Refiner
	Clipboard Clipboard
	Paster    Paster
	Notifier  Notifier
	History   History
	Config    Config
}

type Option func(*Coordinator)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

type Coordinator struct {
	m    *state.Machine
	deps Deps
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders start/stop against each other; edges can arrive from the
	// hotkey loop and the menu at the same time. It also guards the cycle
	// fields below.
	mu sync.Mutex

	// gen identifies the cycle a worker belongs to. Pause bumps it so a
	// worker from an abandoned cycle cannot move the machine.
	gen         uint64
	cancelCycle context.CancelFunc

	lastMu   sync.Mutex
	lastText string
}

func New(m *state.Machine, deps Deps, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		m:      m,
		deps:   deps,
		log:    zerolog.Nop(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HandleStart begins a recording if the machine is idle.
func (c *Coordinator) HandleStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.m.IsReady() {
		c.log.Info().Str("state", c.m.Current().String()).Msg("start_ignored")
		return
	}
	if err := c.m.TransitionTo(state.Recording, nil); err != nil {
		c.log.Warn().Err(err).Msg("start_rejected")
		return
	}
	if err := c.deps.Recorder.Start(); err != nil {
		c.log.Error().Err(err).Msg("recorder_start_failed")
		c.to(state.Idle, nil)
	}
}

// HandleStop ends the recording and hands the audio to a worker. It
// returns before transcription starts.
func (c *Coordinator) HandleStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.m.Is(state.Recording) {
		return
	}
	buf, err := c.deps.Recorder.Stop()
	if err != nil {
		c.log.Error().Err(err).Msg("recorder_stop_failed")
		c.to(state.Idle, nil)
		return
	}
	if buf.Empty() {
		c.log.Info().Msg("empty_recording")
		c.to(state.Idle, nil)
		return
	}
	if !c.to(state.Processing, nil) {
		return
	}
	c.gen++
	w := &worker{c: c, gen: c.gen}
	w.ctx, c.cancelCycle = context.WithCancel(c.ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer w.cancel()
		w.process(buf)
	}()
}

// worker runs one cycle after the recording stops.
type worker struct {
	c   *Coordinator
	gen uint64
	ctx context.Context
}

func (w *worker) cancel() {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	if w.c.gen == w.gen && w.c.cancelCycle != nil {
		w.c.cancelCycle()
		w.c.cancelCycle = nil
	}
}

// to moves the machine only while the cycle is still the current one and
// the machine is still inside it.
func (w *worker) to(s state.AppState, p state.Payload) bool {
	c := w.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != w.gen || !c.m.Current().Busy() || c.m.Is(state.Recording) {
		c.log.Info().
			Uint64("cycle", w.gen).
			Str("state", c.m.Current().String()).
			Str("target", s.String()).
			Msg("stale_cycle_dropped")
		return false
	}
	return c.to(s, p)
}

// fail moves the machine to ERROR. The ERROR enter hook owns the user
// facing notification.
func (w *worker) fail(stage string, err error) {
	if w.ctx.Err() != nil {
		w.c.log.Info().Err(err).Str("stage", stage).Msg("cycle_abandoned")
		return
	}
	w.c.log.Error().Err(err).Str("stage", stage).Msg("cycle_failed")
	w.to(state.Error, state.ErrorPayload{Message: err.Error()})
}

func (w *worker) process(buf audio.Buffer) {
	c := w.c
	cfg := c.deps.Config
	opts := transcriber.Options{
		Language:    cfg.String("transcription.language", defaultLanguage),
		Temperature: cfg.Float("transcription.temperature", 0),
		Prompt:      cfg.String("transcription.initial_prompt", ""),
	}

	start := time.Now()
	res, err := c.deps.Engine.Transcribe(w.ctx, buf, opts)
	if err != nil {
		w.fail("transcribe", err)
		return
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	c.log.Info().
		Str("engine", c.deps.Engine.Name()).
		Str("language", res.Language).
		Float64("audio_s", buf.Duration().Seconds()).
		Dur("elapsed", time.Since(start)).
		Msg("transcribed")

	text, raw := res.Text, res.Text
	if c.deps.Refiner != nil && cfg.Bool("refine.enabled", false) {
		if !w.to(state.Refining, nil) {
			return
		}
		text, err = c.deps.Refiner.Refine(w.ctx, raw)
		if err != nil {
			w.fail("refine", err)
			return
		}
	}

	if !w.to(state.Copying, nil) {
		return
	}
	if err := c.deps.Clipboard.Write(text); err != nil {
		w.fail("clipboard", err)
		return
	}
	if c.deps.Paster != nil && cfg.Bool("output.auto_paste", false) {
		if err := c.deps.Paster.Paste(); err != nil {
			c.log.Warn().Err(err).Msg("paste_failed")
		}
	}
	if !w.to(state.Idle, nil) {
		return
	}

	c.setLast(text)
	log.TranscriptionText(text)
	c.notify(NotifyTitle, "Text copied to clipboard ("+res.Language+")", Preview(text))

	if c.deps.History != nil {
		entry := history.Entry{
			Text:     text,
			Language: res.Language,
			Engine:   c.deps.Engine.Name(),
			Audio:    buf.Duration(),
		}
		if raw != text {
			entry.Raw = raw
		}
		if _, err := c.deps.History.Add(entry); err != nil {
			c.log.Warn().Err(err).Msg("history_add_failed")
		}
	}
}

// to reports whether the transition happened. The worker stops quietly
// when the user paused in the meantime.
func (c *Coordinator) to(s state.AppState, p state.Payload) bool {
	if err := c.m.TransitionTo(s, p); err != nil {
		c.log.Warn().Err(err).Msg("transition_skipped")
		return false
	}
	return true
}

func (c *Coordinator) notify(title, subtitle, message string) {
	if c.deps.Notifier == nil {
		return
	}
	if err := c.deps.Notifier.Notify(title, subtitle, message); err != nil {
		c.log.Warn().Err(err).Msg("notify_failed")
	}
}

// Preview shortens text for a notification body.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}

// Wait blocks until every in-flight worker has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work and waits for it.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// Run consumes edges until ctx is done or the channel closes.
func (c *Coordinator) Run(ctx context.Context, edges <-chan hotkey.Edge) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-edges:
			if !ok {
				return
			}
			switch e.Kind {
			case hotkey.Start:
				c.HandleStart()
			case hotkey.Stop:
				c.HandleStop()
			}
		}
	}
}

// Pause stops listening for dictation. A recording in progress is
// discarded and a cycle still being processed is abandoned.
func (c *Coordinator) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancelCycle != nil {
		c.cancelCycle()
		c.cancelCycle = nil
	}
	if c.m.Is(state.Recording) {
		if _, err := c.deps.Recorder.Stop(); err != nil {
			c.log.Warn().Err(err).Msg("recorder_stop_failed")
		}
	}
	return c.m.TransitionTo(state.Paused, nil)
}

func (c *Coordinator) Resume() error {
	if !c.m.Is(state.Paused) {
		return nil
	}
	return c.m.TransitionTo(state.Idle, nil)
}

// Recover clears an error so dictation can continue.
func (c *Coordinator) Recover() error {
	if !c.m.Is(state.Error) {
		return nil
	}
	return c.m.TransitionTo(state.Idle, nil)
}

func (c *Coordinator) LastText() string {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.lastText
}

func (c *Coordinator) setLast(text string) {
	c.lastMu.Lock()
	c.lastText = text
	c.lastMu.Unlock()
}

// CopyLast puts the most recent transcription back on the clipboard.
func (c *Coordinator) CopyLast() error {
	text := c.LastText()
	if text == "" {
		return ErrNothingCopied
	}
	return c.deps.Clipboard.Write(text)
}
