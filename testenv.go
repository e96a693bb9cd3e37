package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"voicemode/audio"
	"voicemode/beep"
	"voicemode/config"
	"voicemode/hotkey"
	"voicemode/log"
	"voicemode/state"
)

// runTestMode replays wavPath through the full pipeline, driven by
// line commands on stdin:
//
//	KEYDOWN | KEYUP      press or release the hotkey
//	WAIT                 block until the current cycle settles
//	WAIT_AUDIO_DONE      block until the wav has been fully replayed
//	SLEEP <ms>
//	QUIT
func runTestMode(cfg *config.Config, wavPath string) {
	beep.Disable()

	buf, err := audio.LoadWAV(wavPath)
	if err != nil {
		fatalf("loading WAV: %v", err)
	}
	hk := hotkey.NewFake()
	p, err := buildParts(cfg, options{}, audio.NewFakeContext(buf, true), hk)
	if err != nil {
		fatalf("%v", err)
	}
	a, err := newApp(cfg, p)
	if err != nil {
		fatalf("%v", err)
	}
	log.SessionStart(p.Engine.Name(), cfg.String("transcription.language", "en"), a.combo.String())

	// Headless runs have no permission prompts to wait on.
	if err := hk.Register(); err != nil {
		fatalf("hotkey: %v", err)
	}
	if err := a.machine.TransitionTo(state.Idle, nil); err != nil {
		fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.coord.Run(ctx, a.source.Edges())

	code := a.drive(os.Stdin, hk)
	a.shutdown()
	os.Exit(code)
}

func (a *app) drive(r io.Reader, hk *hotkey.FakeHotkey) int {
	fake, _ := a.p.Capture.(*audio.FakeCapture)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "":
		case cmd == "KEYDOWN":
			hk.SimKeydown()
		case cmd == "KEYUP":
			hk.SimKeyup()
		case cmd == "WAIT":
			<-a.settled
		case cmd == "WAIT_AUDIO_DONE":
			if fake != nil {
				<-fake.AudioDone()
			}
		case cmd == "QUIT":
			return 0
		case strings.HasPrefix(cmd, "SLEEP "):
			ms, err := strconv.Atoi(strings.TrimSpace(cmd[len("SLEEP "):]))
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad SLEEP: %q\n", cmd)
				continue
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %q\n", cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("stdin: %v", err)
		return 1
	}
	return 0
}
