package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"voicemode/audio"
)

var (
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrNoAPIKey       = errors.New("missing API key")
)

// Options are per-request decoding settings.
type Options struct {
	Language    string // "" or "auto" lets the engine detect it
	Temperature float64
	Prompt      string
}

func (o Options) language() string {
	if o.Language == "auto" {
		return ""
	}
	return o.Language
}

type Result struct {
	Text     string
	Language string
	Duration time.Duration // audio length the engine reported, if any
}

// Engine turns a finished recording into text. Implementations must be
// safe to call from a background goroutine.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, buf audio.Buffer, opts Options) (Result, error)
}

// Settings select and configure an engine.
type Settings struct {
	Engine     string // whisper, openai or groq
	ModelPath  string
	WhisperBin string
	APIKey     string
	Timeout    time.Duration
}

func New(s Settings) (Engine, error) {
	switch s.Engine {
	case "", "whisper":
		return NewWhisper(s.ModelPath, s.WhisperBin), nil
	case "openai":
		key := firstNonEmpty(s.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ErrNoAPIKey)
		}
		return NewOpenAI(key, s.Timeout), nil
	case "groq":
		key := firstNonEmpty(s.APIKey, os.Getenv("GROQ_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("groq: %w (set GROQ_API_KEY)", ErrNoAPIKey)
		}
		return NewGroq(key, s.Timeout), nil
	}
	return nil, fmt.Errorf("unknown transcription engine %q", s.Engine)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
