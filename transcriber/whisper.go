package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voicemode/audio"
	"voicemode/log"
)

var ErrWhisperNotFound = errors.New("whisper-cli not found")

var (
	whisperNames = []string{"whisper-cli", "whisper-cpp", "whisper"}
	whisperDirs  = []string{"/opt/homebrew/bin", "/usr/local/bin"}
)

// runFunc executes bin with args and returns combined stderr on failure.
type runFunc func(ctx context.Context, bin string, args []string) (stdout []byte, err error)

// Whisper runs a local whisper.cpp CLI against a ggml model file.
type Whisper struct {
	modelPath string
	bin       string
	lookPath  func(string) (string, error)
	run       runFunc
}

// NewWhisper returns an engine for modelPath. bin may be empty, in which
// case the CLI is searched for on first use.
func NewWhisper(modelPath, bin string) *Whisper {
	return &Whisper{
		modelPath: expandHome(modelPath),
		bin:       expandHome(bin),
		lookPath:  exec.LookPath,
		run:       runCommand,
	}
}

func (w *Whisper) Name() string { return "whisper" }

// Ready reports whether the model file is present.
func (w *Whisper) Ready() error {
	if w.modelPath == "" {
		return fmt.Errorf("%w: no model path configured", ErrModelNotLoaded)
	}
	if _, err := os.Stat(w.modelPath); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotLoaded, w.modelPath)
	}
	return nil
}

func (w *Whisper) Transcribe(ctx context.Context, buf audio.Buffer, opts Options) (Result, error) {
	if err := w.Ready(); err != nil {
		return Result{}, err
	}
	if buf.Empty() {
		return Result{}, nil
	}
	bin, err := w.binary()
	if err != nil {
		return Result{}, err
	}

	dir, err := os.MkdirTemp("", "voicemode-*")
	if err != nil {
		return Result{}, fmt.Errorf("whisper: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "input.wav")
	if err := audio.SaveWAV(wavPath, buf); err != nil {
		return Result{}, fmt.Errorf("whisper: %w", err)
	}
	outBase := filepath.Join(dir, "out")

	start := time.Now()
	stdout, err := w.run(ctx, bin, w.args(wavPath, outBase, opts))
	if err != nil {
		return Result{}, fmt.Errorf("whisper: %w", err)
	}

	out, err := os.ReadFile(outBase + ".json")
	if err != nil {
		out = stdout
	}
	res := parseWhisperOutput(out)
	if res.Language == "" {
		res.Language = opts.language()
	}
	res.Duration = buf.Duration()
	log.Transcription(w.Name(), res.Language, buf.Duration().Seconds(), time.Since(start))
	return res, nil
}

func (w *Whisper) args(wavPath, outBase string, opts Options) []string {
	lang := opts.language()
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", lang,
		"-tp", strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		"-oj", "-of", outBase,
		"--no-prints",
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	return args
}

func (w *Whisper) binary() (string, error) {
	if w.bin != "" {
		if _, err := os.Stat(w.bin); err != nil {
			return "", fmt.Errorf("%w: %s", ErrWhisperNotFound, w.bin)
		}
		return w.bin, nil
	}
	for _, name := range whisperNames {
		if p, err := w.lookPath(name); err == nil {
			w.bin = p
			return p, nil
		}
	}
	for _, dir := range whisperDirs {
		for _, name := range whisperNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				w.bin = p
				return p, nil
			}
		}
	}
	return "", ErrWhisperNotFound
}

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperOutput reads whisper.cpp's JSON output, falling back to
// treating the data as plain text.
func parseWhisperOutput(data []byte) Result {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{Text: strings.TrimSpace(string(data))}
	}
	var sb strings.Builder
	for _, seg := range out.Transcription {
		sb.WriteString(seg.Text)
	}
	return Result{
		Text:     strings.Join(strings.Fields(sb.String()), " "),
		Language: out.Result.Language,
	}
}

func runCommand(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}
