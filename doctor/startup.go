package doctor

import (
	"fmt"
	"time"

	"voicemode/audio"
	"voicemode/hotkey"
)

const DefaultTimeout = 3 * time.Second

type ClipboardReader interface {
	Read() (string, error)
}

type ModelChecker interface {
	Ready() error
}

// Env holds what the startup checks exercise. Nil fields are skipped.
type Env struct {
	Audio      audio.Context
	SampleRate int
	Hotkey     hotkey.Hotkey
	HotkeyName string
	Clipboard  ClipboardReader
	Model      ModelChecker
	Timeout    time.Duration
}

// Startup runs the non-interactive checks. A granted hotkey check leaves
// the hotkey registered; the caller unregisters it on shutdown.
func Startup(env Env) []Check {
	timeout := env.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var checks []Check
	if env.Audio != nil {
		checks = append(checks, Probe("microphone", timeout, func() (string, error) {
			return probeMicrophone(env.Audio, env.SampleRate)
		}))
	}
	if env.Hotkey != nil {
		checks = append(checks, Probe("hotkey", timeout, func() (string, error) {
			if err := env.Hotkey.Register(); err != nil {
				return "", err
			}
			return "registered " + env.HotkeyName, nil
		}))
	}
	if env.Clipboard != nil {
		checks = append(checks, Probe("clipboard", timeout, func() (string, error) {
			_, err := env.Clipboard.Read()
			return "readable", err
		}))
	}
	if env.Model != nil {
		checks = append(checks, Probe("model", timeout, func() (string, error) {
			return "loaded", env.Model.Ready()
		}))
	}
	return checks
}

func probeMicrophone(ctx audio.Context, sampleRate int) (string, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no capture devices found")
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: uint32(sampleRate),
		Channels:   audio.DefaultChannels,
	})
	if err != nil {
		return "", err
	}
	defer dev.Close()
	if err := dev.Start(); err != nil {
		return "", err
	}
	dev.Stop()
	return fmt.Sprintf("%d device(s), default %s", len(devices), dev.DeviceName()), nil
}
