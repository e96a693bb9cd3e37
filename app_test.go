package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"voicemode/audio"
	"voicemode/beep"
	"voicemode/clipboard"
	"voicemode/config"
	"voicemode/coordinator"
	"voicemode/hotkey"
	"voicemode/notify"
	"voicemode/state"
	"voicemode/transcriber"
)

type countingFrontend struct {
	refreshes atomic.Int32
	quits     atomic.Int32
}

func (f *countingFrontend) Refresh() { f.refreshes.Add(1) }
func (f *countingFrontend) Quit()    { f.quits.Add(1) }

type testApp struct {
	*app
	hk   *hotkey.FakeHotkey
	cb   *clipboard.Memory
	note *notify.Recorder
	fe   *countingFrontend
}

func tone(seconds float64, amp float32) audio.Buffer {
	s := make([]float32, int(16000*seconds))
	for i := range s {
		s[i] = amp
	}
	return audio.Buffer{Samples: s, SampleRate: 16000}
}

func newTestApp(t *testing.T, cfgYAML string, buf audio.Buffer, engine coordinator.Engine) *testApp {
	t.Helper()
	beep.Disable()

	cfg, err := config.Parse([]byte(cfgYAML))
	if err != nil {
		t.Fatal(err)
	}
	actx := audio.NewFakeContext(buf, false)
	capture, err := actx.NewCapture(nil, audio.CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	ta := &testApp{
		hk:   hotkey.NewFake(),
		cb:   &clipboard.Memory{},
		note: &notify.Recorder{},
		fe:   &countingFrontend{},
	}
	a, err := newApp(cfg, parts{
		Audio:     actx,
		Capture:   capture,
		Hotkey:    ta.hk,
		Engine:    engine,
		Clipboard: ta.cb,
		Notifier:  ta.note,
	})
	if err != nil {
		t.Fatal(err)
	}
	a.setFrontend(ta.fe)
	ta.app = a
	t.Cleanup(a.shutdown)
	return ta
}

func (ta *testApp) waitSettled(t *testing.T) {
	t.Helper()
	select {
	case <-ta.settled:
	case <-time.After(5 * time.Second):
		t.Fatalf("cycle did not settle, state %s", ta.State())
	}
	ta.coord.Wait()
}

func TestAppStartupReachesIdle(t *testing.T) {
	ta := newTestApp(t, "", tone(0.5, 0.1), transcriber.NewFake("hi", "en", nil))
	if got := ta.State(); got != state.Initializing {
		t.Fatalf("before startup: %s", got)
	}
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	if got := ta.State(); got != state.Idle {
		t.Fatalf("after startup: %s", got)
	}
	if !ta.hk.Registered() {
		t.Error("hotkey not registered by startup")
	}
	if !strings.Contains(ta.Status(), "Hold") {
		t.Errorf("idle status = %q, want the hotkey hint", ta.Status())
	}
	if ta.fe.refreshes.Load() == 0 {
		t.Error("frontend never refreshed")
	}
}

func TestAppStartupDeniedHotkey(t *testing.T) {
	ta := newTestApp(t, "", tone(0.5, 0.1), transcriber.NewFake("hi", "en", nil))
	ta.hk.FailRegister(errors.New("in use"))

	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	if got := ta.State(); got != state.Error {
		t.Fatalf("state = %s, want error", got)
	}
	if !strings.HasPrefix(ta.Status(), "Error: ") {
		t.Errorf("status = %q", ta.Status())
	}
	sent := ta.note.Sent()
	if len(sent) != 1 || sent[0].Title != coordinator.ErrorTitle {
		t.Fatalf("notifications = %+v", sent)
	}
	select {
	case <-ta.settled:
	default:
		t.Error("error state did not signal settled")
	}

	ta.Dismiss()
	if got := ta.State(); got != state.Idle {
		t.Fatalf("after dismiss: %s", got)
	}
}

func TestAppFullCycle(t *testing.T) {
	ta := newTestApp(t, "", tone(1, 0.1), transcriber.NewFake("hello world", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}

	ta.ToggleRecording()
	if got := ta.State(); got != state.Recording {
		t.Fatalf("state = %s, want recording", got)
	}
	ops := ta.bridge.Drain()
	if !ops.Show || !ops.HasLevel || ops.Level <= 0 {
		t.Fatalf("ops while recording = %+v", ops)
	}

	ta.ToggleRecording()
	ta.waitSettled(t)

	if got := ta.State(); got != state.Idle {
		t.Fatalf("state = %s, want idle", got)
	}
	if !ta.bridge.Drain().Hide {
		t.Error("no hide request after recording")
	}
	if got := ta.LastText(); got != "hello world" {
		t.Errorf("last text = %q", got)
	}
	if got, _ := ta.cb.Read(); got != "hello world" {
		t.Errorf("clipboard = %q", got)
	}
	if !ta.HasLast() {
		t.Error("HasLast false after a cycle")
	}
	if n := ta.cycles.Load(); n != 1 {
		t.Errorf("cycles = %d", n)
	}
	sent := ta.note.Sent()
	if len(sent) != 1 || sent[0].Title != coordinator.NotifyTitle {
		t.Errorf("notifications = %+v", sent)
	}
}

func TestAppNotifyOff(t *testing.T) {
	ta := newTestApp(t, "output:\n  notify: false\n", tone(1, 0.1), transcriber.NewFake("quiet", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	ta.ToggleRecording()
	ta.ToggleRecording()
	ta.waitSettled(t)
	if sent := ta.note.Sent(); len(sent) != 0 {
		t.Errorf("notifications with notify off = %+v", sent)
	}
}

func TestAppTranscribeFailure(t *testing.T) {
	ta := newTestApp(t, "", tone(1, 0.1), transcriber.NewFake("", "", errors.New("engine down")))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	ta.ToggleRecording()
	ta.ToggleRecording()
	ta.waitSettled(t)

	if got := ta.State(); got != state.Error {
		t.Fatalf("state = %s, want error", got)
	}
	if !strings.Contains(ta.Status(), "engine down") {
		t.Errorf("status = %q", ta.Status())
	}
	if ta.HasLast() {
		t.Error("failed cycle set last text")
	}
}

func TestAppPauseReleasesHotkey(t *testing.T) {
	ta := newTestApp(t, "", tone(1, 0.1), transcriber.NewFake("x", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}

	ta.TogglePause()
	if got := ta.State(); got != state.Paused {
		t.Fatalf("state = %s, want paused", got)
	}
	if ta.hk.Registered() {
		t.Error("hotkey still registered while paused")
	}

	ta.ToggleRecording()
	if got := ta.State(); got != state.Paused {
		t.Fatalf("recording started while paused: %s", got)
	}

	ta.TogglePause()
	if got := ta.State(); got != state.Idle {
		t.Fatalf("state = %s, want idle", got)
	}
	if !ta.hk.Registered() {
		t.Error("hotkey not registered after resume")
	}
}

func TestAppPauseDiscardsRecording(t *testing.T) {
	ta := newTestApp(t, "", tone(1, 0.1), transcriber.NewFake("x", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	ta.ToggleRecording()
	ta.TogglePause()
	if got := ta.State(); got != state.Paused {
		t.Fatalf("state = %s, want paused", got)
	}
	if !ta.bridge.Drain().Hide {
		t.Error("indicator not hidden on pause")
	}
	if ta.HasLast() {
		t.Error("discarded recording produced text")
	}
}

func TestAppCopyLast(t *testing.T) {
	ta := newTestApp(t, "", tone(1, 0.1), transcriber.NewFake("again", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	ta.CopyLast()
	if n := ta.cb.Writes(); n != 0 {
		t.Fatalf("copy with no history wrote %d times", n)
	}

	ta.ToggleRecording()
	ta.ToggleRecording()
	ta.waitSettled(t)
	ta.CopyLast()
	if n := ta.cb.Writes(); n != 2 {
		t.Errorf("writes = %d, want 2", n)
	}
}

func TestAppSilenceWarning(t *testing.T) {
	ta := newTestApp(t, "", tone(0.1, 0), transcriber.NewFake("x", "en", nil))
	ta.silence = audio.NewSilenceMonitor(false)

	chunk := make([]float32, 1600) // 100ms at 16kHz
	for range 79 {
		ta.onChunk(chunk, 0)
	}
	if ta.NoVoice() {
		t.Fatal("warned before 8s of silence")
	}
	ta.onChunk(chunk, 0)
	if !ta.NoVoice() {
		t.Fatal("no warning after 8s of silence")
	}

	loud := make([]float32, 1600)
	for range 20 {
		ta.onChunk(loud, 0.2)
	}
	if ta.NoVoice() {
		t.Error("warning not cleared after speech")
	}
}

func TestAppPreferencesWritesSettings(t *testing.T) {
	ta := newTestApp(t, "", tone(0.5, 0.1), transcriber.NewFake("x", "en", nil))
	path := filepath.Join(t.TempDir(), "VoiceMode", "settings.yaml")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ta.cfg = cfg

	got, err := ta.Preferences()
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("settings not written: %v", err)
	}
	if !strings.Contains(string(data), "transcription:") {
		t.Errorf("settings file = %q", data)
	}
	if !strings.Contains(ta.Help(), path) {
		t.Errorf("help = %q", ta.Help())
	}
}

func TestAppQuitShutsDown(t *testing.T) {
	ta := newTestApp(t, "", tone(0.5, 0.1), transcriber.NewFake("x", "en", nil))
	if err := ta.startup(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		ta.serve()
		close(done)
	}()
	ta.Quit()
	ta.Quit()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after Quit")
	}
	if ta.hk.Registered() {
		t.Error("hotkey still registered after shutdown")
	}
	if n := ta.fe.quits.Load(); n != 1 {
		t.Errorf("frontend quit %d times", n)
	}
}
