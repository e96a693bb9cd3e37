package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"voicemode/audio"
	"voicemode/beep"
	"voicemode/config"
	"voicemode/coordinator"
	"voicemode/doctor"
	"voicemode/hotkey"
	"voicemode/indicator"
	"voicemode/log"
	"voicemode/login"
	"voicemode/shutdown"
	"voicemode/state"
	"voicemode/uibridge"
)

// parts are the collaborators newApp wires together. Optional ones may be
// nil, as in coordinator.Deps.
type parts struct {
	Audio     audio.Context
	Capture   audio.CaptureDevice
	Hotkey    hotkey.Hotkey
	Engine    coordinator.Engine
	Refiner   coordinator.Refiner
	Clipboard clipboardRW
	Paster    coordinator.Paster
	Notifier  coordinator.Notifier
	History   historyStore
	Model     doctor.ModelChecker
}

type clipboardRW interface {
	Write(text string) error
	Read() (string, error)
}

type historyStore interface {
	coordinator.History
	Close() error
}

// app owns the machine and everything hanging off its hooks. Both
// frontends drive it through the same methods.
type app struct {
	cfg      *config.Config
	p        parts
	machine  *state.Machine
	coord    *coordinator.Coordinator
	bridge   *uibridge.Bridge
	recorder *audio.Recorder
	source   *hotkey.Source
	combo    hotkey.Combo
	mode     string
	hint     string
	// loginArgs are passed to the login item so it starts the same frontend.
	loginArgs []string

	silenceMu sync.Mutex
	silence   *audio.SilenceMonitor
	noVoice   atomic.Bool

	cycles  atomic.Int64
	settled chan struct{}

	feMu sync.Mutex
	fe   frontend

	quit     chan struct{}
	quitOnce sync.Once
	downOnce sync.Once
}

func newApp(cfg *config.Config, p parts) (*app, error) {
	combo, err := hotkey.Parse(cfg.String("hotkey.combo", "ctrl+shift+space"))
	if err != nil {
		return nil, err
	}
	mode := cfg.String("hotkey.mode", "hold")
	source, err := hotkey.NewSource(mode, p.Hotkey, cfg.Duration("hotkey.long_press", 350*time.Millisecond))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		p:       p,
		bridge:  uibridge.New(),
		source:  source,
		combo:   combo,
		mode:    mode,
		hint:    indicator.Hint(mode, combo),
		settled: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		fe:      nopFrontend{},
	}
	a.machine = state.New(a.hooks(), state.WithLogger(log.Logger()))

	a.recorder = audio.NewRecorder(p.Capture, cfg.Int("audio.sample_rate", audio.DefaultSampleRate))
	a.recorder.OnChunk(a.onChunk)

	deps := coordinator.Deps{
		Recorder:  a.recorder,
		Engine:    p.Engine,
		Refiner:   p.Refiner,
		Clipboard: p.Clipboard,
		Paster:    p.Paster,
		Config:    cfg,
	}
	if cfg.Bool("output.notify", true) {
		deps.Notifier = p.Notifier
	}
	if p.History != nil {
		deps.History = p.History
	}
	a.coord = coordinator.New(a.machine, deps, coordinator.WithLogger(log.Logger()))
	return a, nil
}

func (a *app) hooks() map[state.AppState]state.Hooks {
	h := make(map[state.AppState]state.Hooks, len(state.All))
	for _, s := range state.All {
		h[s] = state.Hooks{OnEnter: func(p state.Payload) error {
			a.entered(s)
			return nil
		}}
	}

	h[state.Recording] = state.Hooks{
		OnEnter: func(state.Payload) error {
			a.silenceMu.Lock()
			a.silence = audio.NewSilenceMonitor(a.mode == "toggle")
			a.silenceMu.Unlock()
			a.noVoice.Store(false)
			a.bridge.RequestShow()
			beep.Play(beep.Start)
			a.entered(state.Recording)
			return nil
		},
		OnExit: func() error {
			a.bridge.RequestHide()
			beep.Play(beep.Stop)
			return nil
		},
	}

	h[state.Error] = state.Hooks{OnEnter: func(p state.Payload) error {
		msg := ""
		if ep, ok := p.(state.ErrorPayload); ok {
			msg = ep.Message
		}
		log.Errorf("error_state: %s", msg)
		beep.Play(beep.Error)
		a.entered(state.Error)
		if a.p.Notifier == nil || !a.cfg.Bool("output.notify", true) {
			return nil
		}
		return a.p.Notifier.Notify(coordinator.ErrorTitle, coordinator.ErrorSubtitle, msg)
	}}
	return h
}

// entered runs after every transition, with the new state already visible.
func (a *app) entered(s state.AppState) {
	prev := a.machine.Previous()
	settledCycle := s == state.Error || (s == state.Idle && (prev == state.Copying || prev == state.Recording))
	if s == state.Idle && prev == state.Copying {
		a.cycles.Add(1)
	}
	if settledCycle {
		select {
		case a.settled <- struct{}{}:
		default:
		}
	}
	a.frontend().Refresh()
}

// onChunk runs on the capture thread and must not block.
func (a *app) onChunk(chunk []float32, level float64) {
	a.bridge.RequestLevel(level)

	a.silenceMu.Lock()
	mon := a.silence
	var ev audio.SilenceEvent
	if mon != nil {
		rate := a.cfg.Int("audio.sample_rate", audio.DefaultSampleRate)
		ev = mon.Feed(level, time.Duration(len(chunk))*time.Second/time.Duration(rate))
	}
	a.silenceMu.Unlock()

	switch ev {
	case audio.SilenceWarn, audio.SilenceRepeat:
		a.noVoice.Store(true)
		log.Info("no_voice_" + ev.String())
		beep.Play(beep.Error)
		a.frontend().Refresh()
	case audio.SilenceWarnClear:
		a.noVoice.Store(false)
		a.frontend().Refresh()
	case audio.SilenceAutoClose:
		log.Info("silence_auto_close")
		// Stop waits for the capture callback to return
		go a.coord.HandleStop()
	}
}

// startup runs the permission checks and leaves INITIALIZING.
func (a *app) startup() error {
	policy, err := doctor.ParsePolicy(a.cfg.String("permissions.policy", "fail_closed"))
	if err != nil {
		log.Warnf("permissions: %v, using %s", err, doctor.FailClosed)
		policy = doctor.FailClosed
	}
	env := doctor.Env{
		Audio:      a.p.Audio,
		SampleRate: a.cfg.Int("audio.sample_rate", audio.DefaultSampleRate),
		Hotkey:     a.p.Hotkey,
		HotkeyName: a.combo.Label(),
		Clipboard:  a.p.Clipboard,
		Model:      a.p.Model,
	}
	checks := doctor.Startup(env)
	for _, c := range checks {
		log.Info("permission: " + c.String())
	}
	if err := doctor.Evaluate(checks, policy); err != nil {
		return a.machine.TransitionTo(state.Error, state.ErrorPayload{Message: err.Error()})
	}
	return a.machine.TransitionTo(state.Idle, nil)
}

// serve consumes hotkey edges until Quit or a signal.
func (a *app) serve() {
	ctx, stop := shutdown.Context(context.Background())
	go a.coord.Run(ctx, a.source.Edges())

	select {
	case <-ctx.Done():
		log.Info("signal_shutdown")
	case <-a.quit:
	}
	stop()
	a.shutdown()
}

func (a *app) shutdown() {
	a.downOnce.Do(func() {
		a.source.Close()
		if a.p.Hotkey != nil {
			a.p.Hotkey.Unregister()
		}
		a.coord.Close()
		if a.p.History != nil {
			if err := a.p.History.Close(); err != nil {
				log.Warnf("history close: %v", err)
			}
		}
		if a.p.Capture != nil {
			a.p.Capture.Close()
		}
		if a.p.Audio != nil {
			a.p.Audio.Close()
		}
		if n := a.cycles.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		a.frontend().Quit()
		log.Close()
	})
}

func (a *app) setFrontend(fe frontend) {
	a.feMu.Lock()
	a.fe = fe
	a.feMu.Unlock()
}

func (a *app) frontend() frontend {
	a.feMu.Lock()
	defer a.feMu.Unlock()
	return a.fe
}

// Controller surface shared by the menu and the terminal UI.

func (a *app) State() state.AppState { return a.machine.Current() }

func (a *app) Status() string {
	return indicator.Status(a.machine.Current(), a.machine.ErrorMessage(), a.hint)
}

func (a *app) HasLast() bool { return a.coord.LastText() != "" }

func (a *app) LastText() string { return a.coord.LastText() }

func (a *app) NoVoice() bool { return a.noVoice.Load() }

func (a *app) ToggleRecording() {
	if a.machine.Is(state.Recording) {
		a.coord.HandleStop()
		return
	}
	a.coord.HandleStart()
}

// TogglePause releases the hotkey while paused so other apps can use it.
func (a *app) TogglePause() {
	if a.machine.Is(state.Paused) {
		if a.p.Hotkey != nil {
			if err := a.p.Hotkey.Register(); err != nil {
				log.Errorf("resume: %v", err)
				return
			}
		}
		if err := a.coord.Resume(); err != nil {
			log.Warnf("resume: %v", err)
		}
		return
	}
	if err := a.coord.Pause(); err != nil {
		log.Warnf("pause: %v", err)
		return
	}
	if a.p.Hotkey != nil {
		a.p.Hotkey.Unregister()
	}
}

func (a *app) Dismiss() {
	if err := a.coord.Recover(); err != nil {
		log.Warnf("dismiss: %v", err)
	}
}

func (a *app) CopyLast() {
	if err := a.coord.CopyLast(); err != nil {
		log.Warnf("copy last: %v", err)
	}
}

func (a *app) LaunchAtLogin() bool { return login.Enabled() }

func (a *app) SetLaunchAtLogin(on bool) {
	var err error
	if on {
		err = login.Enable(a.loginArgs...)
	} else {
		err = login.Disable()
	}
	if err != nil {
		log.Errorf("launch at login: %v", err)
		return
	}
	a.cfg.Set("ui.launch_at_login", on)
	if err := a.cfg.Save(); err != nil {
		log.Warnf("save settings: %v", err)
	}
	a.frontend().Refresh()
}

func (a *app) Help() string {
	return indicator.Help(a.mode, a.combo, a.cfg.Path())
}

// Preferences returns the settings file, writing the current settings
// there first if it does not exist yet.
func (a *app) Preferences() (string, error) {
	path := a.cfg.Path()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := a.cfg.Save(); err != nil {
			return "", err
		}
	}
	return path, nil
}

func (a *app) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}
