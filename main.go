package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicemode/audio"
	"voicemode/beep"
	"voicemode/clipboard"
	"voicemode/config"
	"voicemode/doctor"
	"voicemode/history"
	"voicemode/hotkey"
	"voicemode/indicator"
	"voicemode/log"
	"voicemode/login"
	"voicemode/notify"
	"voicemode/refine"
	"voicemode/state"
	"voicemode/transcriber"
)

var version = "dev"

const appName = "Voice Mode"

type options struct {
	configPath string
	logPath    string
	device     string
	lang       string
	doctor     bool
	version    bool
	gui        bool
	tui        bool
	test       bool
	setup      bool
	crash      bool
	args       []string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "settings file (default: VOICEMODE_CONFIG or the user config dir)")
	flag.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	flag.StringVar(&o.device, "device", "", "Use named microphone device")
	flag.StringVar(&o.lang, "lang", "", "Language code for transcription (e.g., en, es, fr); auto = detect")
	flag.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	flag.BoolVar(&o.version, "version", false, "Print version and exit")
	flag.BoolVar(&o.gui, "gui", false, "Run as a menu-bar app (needs a build with -tags gui)")
	flag.BoolVar(&o.tui, "tui", true, "Run with terminal UI")
	flag.BoolVar(&o.test, "test", false, "Test mode (headless, stdin-driven)")
	flag.BoolVar(&o.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	flag.BoolVar(&o.crash, "crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()
	o.args = flag.Args()
	return o
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// bootstrap handles everything that has to happen before the app is
// built: logs, crash output, settings.
func bootstrap(o options) *config.Config {
	if o.version {
		fmt.Printf("voicemode %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(o.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog(log.Dir())

	if o.crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	path, err := config.ResolvePath(o.configPath)
	if err != nil {
		fatalf("resolve settings path: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatalf("%v", err)
	}
	if o.lang != "" {
		cfg.Set("transcription.language", o.lang)
	}
	if o.device != "" {
		cfg.Set("audio.device", o.device)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	if !cfg.Bool("output.sounds", true) {
		beep.Disable()
	}
	return cfg
}

func newEngine(cfg *config.Config) (transcriber.Engine, error) {
	return transcriber.New(transcriber.Settings{
		Engine:     cfg.String("transcription.engine", "whisper"),
		ModelPath:  cfg.String("transcription.model_path", ""),
		WhisperBin: cfg.String("transcription.whisper_bin", ""),
		Timeout:    cfg.Duration("transcription.timeout", 60*time.Second),
	})
}

func newRefiner(cfg *config.Config) *refine.Refiner {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" && !cfg.Bool("refine.enabled", false) {
		return nil
	}
	return refine.New(refine.Settings{
		APIKey:       key,
		BaseURL:      cfg.String("refine.base_url", ""),
		Model:        cfg.String("refine.model", ""),
		SystemPrompt: cfg.String("refine.system_prompt", ""),
		UserTemplate: cfg.String("refine.user_template", ""),
		Timeout:      cfg.Duration("transcription.timeout", 60*time.Second),
	})
}

// dataDir holds state next to the settings file.
func dataDir(cfg *config.Config) string {
	if p := cfg.Path(); p != "" {
		return filepath.Dir(p)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "VoiceMode")
	}
	return "."
}

// buildParts creates the real collaborators. actx and hk are injected by
// test mode; nil means the platform implementation.
func buildParts(cfg *config.Config, o options, actx audio.Context, hk hotkey.Hotkey) (parts, error) {
	var p parts
	var err error

	if actx == nil {
		actx, err = audio.NewContext()
		if err != nil {
			return p, fmt.Errorf("audio context: %w", err)
		}
	}
	p.Audio = actx

	var dev *audio.DeviceInfo
	if name := cfg.String("audio.device", ""); name != "" {
		dev = findDevice(actx, name)
		if dev == nil {
			log.Warnf("device %q not found, using system default", name)
		}
	} else if o.setup {
		dev, err = selectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
		}
	}
	rate := cfg.Int("audio.sample_rate", audio.DefaultSampleRate)
	p.Capture, err = actx.NewCapture(dev, audio.CaptureConfig{
		SampleRate: uint32(rate),
		Channels:   uint32(cfg.Int("audio.channels", audio.DefaultChannels)),
	})
	if err != nil {
		return p, fmt.Errorf("capture device: %w", err)
	}
	log.Info("recording_device: " + p.Capture.DeviceName())

	if hk == nil {
		combo, err := hotkey.Parse(cfg.String("hotkey.combo", "ctrl+shift+space"))
		if err != nil {
			return p, err
		}
		if hk, err = hotkey.New(combo); err != nil {
			return p, err
		}
	}
	p.Hotkey = hk

	engine, err := newEngine(cfg)
	if err != nil {
		return p, err
	}
	p.Engine = engine
	if mc, ok := engine.(doctor.ModelChecker); ok {
		p.Model = mc
	}
	if r := newRefiner(cfg); r != nil {
		p.Refiner = r
	}

	p.Clipboard = clipboard.System{}
	p.Paster = clipboard.Paster{}
	if cfg.Bool("output.auto_paste", false) {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
		}
	}
	p.Notifier = notify.New(appName, indicator.TrayIcon(state.Idle))

	if cfg.Bool("history.enabled", true) {
		store, err := history.Open(filepath.Join(dataDir(cfg), "history"), cfg.Int("history.max_entries", 500), log.Logger())
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			p.History = store
		}
	}
	return p, nil
}

func findDevice(actx audio.Context, name string) *audio.DeviceInfo {
	devices, err := actx.Devices()
	if err != nil {
		return nil
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}

func modeLine(cfg *config.Config, engine string) string {
	lang := cfg.String("transcription.language", "en")
	if lang == "" {
		lang = "auto"
	}
	return fmt.Sprintf("[%s (%s) | %s]", engine, lang, cfg.String("hotkey.mode", "hold"))
}

// setupApp builds the app. On macOS it must run on the main thread so the
// audio context is created there.
func setupApp(o options, cfg *config.Config) *app {
	if o.doctor {
		os.Exit(runDoctor(cfg))
	}

	p, err := buildParts(cfg, o, nil, nil)
	if err != nil {
		fatalf("%v", err)
	}
	a, err := newApp(cfg, p)
	if err != nil {
		fatalf("%v", err)
	}
	if o.gui {
		a.loginArgs = []string{"-gui"}
	} else {
		a.loginArgs = []string{"-tui=false"}
	}
	if cfg.Bool("ui.launch_at_login", false) && !login.Enabled() {
		if err := login.Enable(a.loginArgs...); err != nil {
			log.Warnf("launch at login: %v", err)
		}
	}
	log.SessionStart(p.Engine.Name(), cfg.String("transcription.language", "en"), a.combo.String())
	go beep.Init()
	return a
}

func runDoctor(cfg *config.Config) int {
	combo, err := hotkey.Parse(cfg.String("hotkey.combo", "ctrl+shift+space"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	engine, err := newEngine(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	policy, err := doctor.ParsePolicy(cfg.String("permissions.policy", "fail_closed"))
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	return doctor.Run(doctor.RunOptions{
		Combo:      combo,
		Engine:     engine,
		Language:   cfg.String("transcription.language", "en"),
		SampleRate: cfg.Int("audio.sample_rate", audio.DefaultSampleRate),
		Policy:     policy,
	})
}

// runCLI is the terminal (or headless) entry point.
func runCLI(o options) {
	cfg := bootstrap(o)
	if o.test {
		if len(o.args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: voicemode -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(cfg, o.args[0])
		return
	}

	a := setupApp(o, cfg)
	if o.tui {
		prog := NewTUIProgram(newTUIModel(a, a.bridge, modeLine(cfg, a.p.Engine.Name())))
		a.setFrontend(tuiFrontend{p: prog})
		go func() {
			if _, err := prog.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			a.Quit()
		}()
	}
	if err := a.startup(); err != nil {
		log.Errorf("startup: %v", err)
	}
	a.serve()
}
