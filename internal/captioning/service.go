// Package captioning writes short artwork descriptions with a vision model.
package captioning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pixelvision/gallery/internal/config"
	"github.com/pixelvision/gallery/internal/gemini"
	"github.com/pixelvision/gallery/internal/ollama"
	"github.com/pixelvision/gallery/internal/openai"
	"github.com/pixelvision/gallery/internal/providers"
)

const prompt = `You are writing the caption for a piece of pixel art in an online gallery.
Describe what the artwork depicts in one or two plain sentences, at most 200 characters.
Mention the subject, setting and dominant colours. Do not mention that it is pixel art,
do not speculate about the artist, and reply with the caption text only.`

// maxRunes bounds the stored description regardless of what the model returns.
const maxRunes = 280

// Service generates descriptions through one configured provider.
type Service struct {
	provider providers.Provider
	name     string
	model    string
}

// NewService returns a Service for cfg. An empty provider name falls back to
// CAPTION_PROVIDER and then ollama.
func NewService(cfg config.CaptionConfig) (*Service, error) {
	name := cfg.Provider
	if name == "" {
		name = os.Getenv("CAPTION_PROVIDER")
	}
	if name == "" {
		name = "ollama"
	}

	var p providers.Provider
	switch name {
	case "ollama":
		p = ollama.New()
	case "openai":
		p = openai.New()
	case "gemini":
		p = gemini.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel(name)
	}
	return &Service{provider: p, name: name, model: model}, nil
}

// NewWithProvider wraps an existing provider.
func NewWithProvider(p providers.Provider, model string) *Service {
	return &Service{provider: p, name: "custom", model: model}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if m := os.Getenv("OPENAI_MODEL"); m != "" {
			return m
		}
		return "gpt-4o-mini"
	case "gemini":
		if m := os.Getenv("GEMINI_MODEL"); m != "" {
			return m
		}
		return "gemini-1.5-flash"
	default:
		if m := os.Getenv("OLLAMA_MODEL"); m != "" {
			return m
		}
		return "llava:13b"
	}
}

// Describe returns a cleaned single-paragraph description of the image.
func (s *Service) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	slog.Debug("Requesting caption", "provider", s.name, "model", s.model, "bytes", len(image))

	text, err := s.provider.DescribeImage(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0.2,
		Prompt:      prompt,
		Image:       image,
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate caption with %s: %w", s.name, err)
	}

	caption := clean(text)
	if caption == "" {
		return "", fmt.Errorf("%s returned an empty caption", s.name)
	}
	return caption, nil
}

func clean(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)

	r := []rune(text)
	if len(r) > maxRunes {
		text = strings.TrimSpace(string(r[:maxRunes-1])) + "…"
	}
	return text
}
