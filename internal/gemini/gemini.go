package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pixelvision/gallery/internal/providers"
	"google.golang.org/api/option"
)

var (
	ErrMissingKey    = errors.New("GEMINI_API_KEY environment variable not set")
	ErrNoDescription = errors.New("no description returned from Gemini")
)

// Gemini describes images with Google Gemini
type Gemini struct {
	// Endpoint overrides the public API host when set.
	Endpoint string
}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{Endpoint: os.Getenv("GEMINI_ENDPOINT")}
}

func (g *Gemini) clientOptions() ([]option.ClientOption, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	return opts, nil
}

// DescribeImage sends the image followed by the prompt and returns the text
// of the first candidate.
func (g *Gemini) DescribeImage(ctx context.Context, config providers.Config) (string, error) {
	opts, err := g.clientOptions()
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))

	resp, err := model.GenerateContent(ctx, requestParts(config)...)
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}
	return responseText(resp)
}

// requestParts puts the image before the prompt. genai wants the bare image
// subtype, e.g. "png".
func requestParts(config providers.Config) []genai.Part {
	format := strings.TrimPrefix(config.MIMEType, "image/")
	if format == "" {
		format = "jpeg"
	}
	return []genai.Part{
		genai.ImageData(format, config.Image),
		genai.Text(config.Prompt),
	}
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoDescription
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", ErrNoDescription
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrNoDescription
	}
	return sb.String(), nil
}
