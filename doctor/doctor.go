// Package doctor checks the permissions and devices dictation depends on.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"voicemode/audio"
	"voicemode/clipboard"
	"voicemode/hotkey"
	"voicemode/transcriber"
)

type RunOptions struct {
	Combo      hotkey.Combo
	Engine     transcriber.Engine
	Language   string
	SampleRate int
	Policy     Policy
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts RunOptions) int {
	saveTerminal()
	defer exitOnInterrupt()()

	fmt.Println("voicemode doctor - interactive system diagnostics")
	fmt.Println("=================================================")

	allPass := checkPermissions(opts)

	if allPass && !checkHotkey(opts.Combo) {
		allPass = false
	}
	if allPass && !checkMicAndTranscription(opts) {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkPermissions(opts RunOptions) bool {
	fmt.Println()
	fmt.Printf("[1/4] Permissions (policy %s)\n", opts.Policy)

	env := Env{SampleRate: opts.SampleRate, Clipboard: clipboard.System{}}
	if actx, err := audio.NewContext(); err == nil {
		defer actx.Close()
		env.Audio = actx
	} else {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	if m, ok := opts.Engine.(ModelChecker); ok {
		env.Model = m
	}

	checks := Startup(env)
	for _, c := range checks {
		mark := "PASS"
		if c.Status != Granted {
			mark = "FAIL"
		}
		fmt.Printf("  %s: %s\n", mark, c)
	}
	if err := Evaluate(checks, opts.Policy); err != nil {
		fmt.Printf("  %v\n", err)
		return false
	}
	return true
}

func checkHotkey(combo hotkey.Combo) bool {
	fmt.Println()
	fmt.Println("[2/4] Hotkey detection")

	hk, err := hotkey.New(combo)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	fmt.Printf("Press %s...\n", combo.Label())
	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// the hotkey may leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndTranscription(opts RunOptions) bool {
	fmt.Println()
	fmt.Println("[3/4] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) > 1 {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		idx := 0
		if devChoice = strings.TrimSpace(devChoice); devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Printf("  FAIL: invalid choice\n")
			return false
		}
		device = &devices[idx]
	} else {
		device = &devices[0]
	}
	fmt.Printf("Using device: %s\n", device.Name)

	rate := opts.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	dev, err := actx.NewCapture(device, audio.CaptureConfig{SampleRate: uint32(rate), Channels: audio.DefaultChannels})
	if err != nil {
		fmt.Printf("  FAIL: cannot open device: %v\n", err)
		return false
	}
	defer dev.Close()
	rec := audio.NewRecorder(dev, rate)

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	if err := rec.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	fmt.Print("  Recording")
	for range 6 {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	buf, err := rec.Stop()
	fmt.Println(" done")
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if buf.Empty() {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  Recorded %.1fs (peak level %.3f), transcribing with %s...\n",
		buf.Duration().Seconds(), audio.RMS(buf.Samples), opts.Engine.Name())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	result, err := opts.Engine.Transcribe(ctx, buf, transcriber.Options{Language: opts.Language})
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text (%s): %s\n\n", result.Language, text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard and paste")

	cb := clipboard.System{}
	testStr := fmt.Sprintf("voicemode-doctor-%d", time.Now().UnixNano())
	check := Probe("clipboard", DefaultTimeout, func() (string, error) {
		if err := cb.Write(testStr); err != nil {
			return "", err
		}
		got, err := cb.Read()
		if err != nil {
			return "", err
		}
		if got != testStr {
			return "", fmt.Errorf("wrote %q, read back %q", testStr, got)
		}
		return "write/read verified", nil
	})
	if check.Status != Granted {
		fmt.Printf("  FAIL: %s\n", check)
		return false
	}
	fmt.Printf("  PASS: %s\n", check.Detail)

	msg, err := clipboard.Verify()
	if err != nil {
		fmt.Printf("  Warning: auto-paste unavailable: %v\n", err)
		return true
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}
