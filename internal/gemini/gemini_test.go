package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/pixelvision/gallery/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeImageRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New().DescribeImage(context.Background(), providers.Config{Model: "gemini-1.5-flash"})
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestClientOptions(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")

	opts, err := (&Gemini{}).clientOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	opts, err = (&Gemini{Endpoint: "localhost:9999"}).clientOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestRequestParts(t *testing.T) {
	tests := []struct {
		name       string
		mime       string
		wantFormat string
	}{
		{name: "png", mime: "image/png", wantFormat: "png"},
		{name: "jpeg thumbnail", mime: "image/jpeg", wantFormat: "jpeg"},
		{name: "missing type", mime: "", wantFormat: "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := requestParts(providers.Config{Prompt: "describe", Image: []byte("pixels"), MIMEType: tt.mime})
			require.Len(t, parts, 2)

			blob, ok := parts[0].(genai.Blob)
			require.True(t, ok, "image comes first")
			assert.Equal(t, "image/"+tt.wantFormat, blob.MIMEType)
			assert.Equal(t, []byte("pixels"), blob.Data)
			assert.Equal(t, genai.Text("describe"), parts[1])
		})
	}
}

func TestResponseText(t *testing.T) {
	content := func(parts ...genai.Part) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
		}
	}

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "single text part", resp: content(genai.Text("A lighthouse at dusk.")), want: "A lighthouse at dusk."},
		{name: "split text", resp: content(genai.Text("A lighthouse "), genai.Text("at dusk.")), want: "A lighthouse at dusk."},
		{name: "non-text parts ignored", resp: content(genai.Blob{MIMEType: "image/png"}, genai.Text("Sea.")), want: "Sea."},
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{name: "nil content", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, wantErr: true},
		{name: "blank text", resp: content(genai.Text("  ")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoDescription)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
