package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voicemode/audio"
	"voicemode/encoder"
	"voicemode/log"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "whisper-large-v3-turbo"
)

// APIEngine talks to an OpenAI-compatible /audio/transcriptions endpoint.
// Audio is uploaded as FLAC.
type APIEngine struct {
	name   string
	model  openai.AudioModel
	client openai.Client
}

func NewOpenAI(apiKey string, timeout time.Duration) *APIEngine {
	return newAPIEngine("openai", openai.AudioModelWhisper1, apiKey, timeout)
}

func NewGroq(apiKey string, timeout time.Duration) *APIEngine {
	return newAPIEngine("groq", groqModel, apiKey, timeout, option.WithBaseURL(groqBaseURL))
}

func newAPIEngine(name string, model openai.AudioModel, apiKey string, timeout time.Duration, opts ...option.RequestOption) *APIEngine {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(newHTTPClient()),
		option.WithMaxRetries(1),
		option.WithMiddleware(traced(name, log.NetworkMetrics)),
	}
	if timeout > 0 {
		base = append(base, option.WithRequestTimeout(timeout))
	}
	return &APIEngine{
		name:   name,
		model:  model,
		client: openai.NewClient(append(base, opts...)...),
	}
}

func (e *APIEngine) Name() string { return e.name }

func (e *APIEngine) Transcribe(ctx context.Context, buf audio.Buffer, opts Options) (Result, error) {
	if buf.Empty() {
		return Result{}, nil
	}
	data, stats, err := encoder.EncodeFLAC(audio.Float32ToPCM16(buf.Samples), buf.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("%s: encode: %w", e.name, err)
	}
	log.Infof("%s upload: %d bytes flac (%.0f%% smaller) in %v",
		e.name, stats.EncodedBytes, stats.CompressionPct(), stats.EncodeTime)

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(data), "audio.flac", "audio/flac"),
		Model:          e.model,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
		Temperature:    openai.Float(opts.Temperature),
	}
	if lang := opts.language(); lang != "" {
		params.Language = openai.String(lang)
	}
	if opts.Prompt != "" {
		params.Prompt = openai.String(opts.Prompt)
	}

	start := time.Now()
	res, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", e.name, err)
	}
	out := Result{
		Text:     strings.TrimSpace(res.Text),
		Language: normalizeLanguage(res.Language),
		Duration: time.Duration(res.Duration * float64(time.Second)),
	}
	log.Transcription(e.name, out.Language, buf.Duration().Seconds(), time.Since(start))
	return out, nil
}

// The API reports full language names in verbose mode; whisper-cli uses
// ISO codes. Callers always get the code.
var languageCodes = map[string]string{
	"english":    "en",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"turkish":    "tr",
	"russian":    "ru",
	"polish":     "pl",
	"ukrainian":  "uk",
	"japanese":   "ja",
	"chinese":    "zh",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"swedish":    "sv",
	"norwegian":  "no",
	"danish":     "da",
	"finnish":    "fi",
	"greek":      "el",
	"czech":      "cs",
}

func normalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageCodes[l]; ok {
		return code
	}
	return l
}
