package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/config"
)

func TestNewTranscriber_RequiresAPIKey(t *testing.T) {
	_, err := NewTranscriber(context.Background(), config.GeminiConfig{})
	assert.Error(t, err)
}

func TestNewTranscriber_Defaults(t *testing.T) {
	tr, err := NewTranscriber(context.Background(), config.GeminiConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer tr.Close()

	assert.Equal(t, defaultModel, tr.model)
	assert.Equal(t, defaultMIMEType, tr.mimeType)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("I felt "),
				genai.Blob{MIMEType: "audio/webm", Data: []byte{1}},
				genai.Text("calm today."),
			}},
		}},
	}
	assert.Equal(t, "I felt calm today.", responseText(resp))
}
