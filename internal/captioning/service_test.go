package captioning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelvision/gallery/internal/config"
	"github.com/pixelvision/gallery/internal/providers"
)

type stubProvider struct {
	reply string
	err   error
	got   providers.Config
}

func (s *stubProvider) DescribeImage(ctx context.Context, cfg providers.Config) (string, error) {
	s.got = cfg
	return s.reply, s.err
}

func TestDescribe(t *testing.T) {
	p := &stubProvider{reply: "  \"A lighthouse at dusk,\n  with a teal sea.\"  "}
	svc := NewWithProvider(p, "test-model")

	caption, err := svc.Describe(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "A lighthouse at dusk, with a teal sea.", caption)
	assert.Equal(t, "test-model", p.got.Model)
	assert.Equal(t, "image/png", p.got.MIMEType)
	assert.Equal(t, []byte("img"), p.got.Image)
}

func TestDescribeErrors(t *testing.T) {
	_, err := NewWithProvider(&stubProvider{err: errors.New("boom")}, "m").Describe(context.Background(), nil, "")
	assert.Error(t, err)

	_, err = NewWithProvider(&stubProvider{reply: "   "}, "m").Describe(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestDescribeTruncates(t *testing.T) {
	svc := NewWithProvider(&stubProvider{reply: strings.Repeat("a", 500)}, "m")
	caption, err := svc.Describe(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, maxRunes, len([]rune(caption)))
}

func TestNewService(t *testing.T) {
	t.Setenv("CAPTION_PROVIDER", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("OPENAI_MODEL", "")

	tests := []struct {
		cfg       config.CaptionConfig
		wantName  string
		wantModel string
	}{
		{cfg: config.CaptionConfig{}, wantName: "ollama", wantModel: "llava:13b"},
		{cfg: config.CaptionConfig{Provider: "openai"}, wantName: "openai", wantModel: "gpt-4o-mini"},
		{cfg: config.CaptionConfig{Provider: "gemini", Model: "gemini-pro-vision"}, wantName: "gemini", wantModel: "gemini-pro-vision"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			svc, err := NewService(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, svc.name)
			assert.Equal(t, tt.wantModel, svc.model)
		})
	}

	_, err := NewService(config.CaptionConfig{Provider: "parrot"})
	assert.Error(t, err)
}
