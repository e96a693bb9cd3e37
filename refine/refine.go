// Package refine cleans up transcribed text with a chat model.
package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voicemode/log"
)

var ErrEmptyReply = errors.New("refine: empty reply")

const placeholder = "{text}"

type Settings struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	UserTemplate string
	Timeout      time.Duration
}

type Refiner struct {
	client   openai.Client
	model    openai.ChatModel
	system   string
	template string
}

func New(s Settings, opts ...option.RequestOption) *Refiner {
	base := []option.RequestOption{option.WithMaxRetries(1)}
	if s.APIKey != "" {
		base = append(base, option.WithAPIKey(s.APIKey))
	}
	if s.BaseURL != "" {
		base = append(base, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(s.Timeout))
	}
	model := openai.ChatModel(s.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	tmpl := s.UserTemplate
	if tmpl == "" {
		tmpl = placeholder
	}
	return &Refiner{
		client:   openai.NewClient(append(base, opts...)...),
		model:    model,
		system:   s.SystemPrompt,
		template: tmpl,
	}
}

// Render fills the user template. Templates without a placeholder get
// the text appended on its own line.
func Render(tmpl, text string) string {
	if !strings.Contains(tmpl, placeholder) {
		return tmpl + "\n\n" + text
	}
	return strings.ReplaceAll(tmpl, placeholder, text)
}

func (r *Refiner) Refine(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	var msgs []openai.ChatCompletionMessageParamUnion
	if r.system != "" {
		msgs = append(msgs, openai.SystemMessage(r.system))
	}
	msgs = append(msgs, openai.UserMessage(Render(r.template, text)))

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       r.model,
		Messages:    msgs,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("refine: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyReply
	}
	log.Infof("refine: %s %d -> %d chars in %v", r.model, len(text), len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}
