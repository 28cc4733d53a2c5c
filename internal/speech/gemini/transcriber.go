package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Rrens/mindful-journal/internal/config"
)

const (
	defaultModel    = "gemini-2.5-flash"
	defaultMIMEType = "audio/webm"

	transcribePrompt = "Transcribe the spoken words in this audio clip. " +
		"Reply with the transcript only, without commentary. " +
		"Reply with an empty message if nothing is said."
)

// Transcriber transcribes audio chunks with a Gemini model
type Transcriber struct {
	client   *genai.Client
	model    string
	mimeType string
}

// NewTranscriber creates a Gemini client for cfg
func NewTranscriber(ctx context.Context, cfg config.GeminiConfig) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini transcriber is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	t := &Transcriber{
		client:   client,
		model:    cfg.Model,
		mimeType: cfg.AudioMIMEType,
	}
	if t.model == "" {
		t.model = defaultModel
	}
	if t.mimeType == "" {
		t.mimeType = defaultMIMEType
	}
	return t, nil
}

// Transcribe sends the chunk inline with a transcription prompt
func (t *Transcriber) Transcribe(ctx context.Context, chunk []byte) (string, error) {
	model := t.client.GenerativeModel(t.model)
	var temperature float32 = 0.0
	model.Temperature = &temperature

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: t.mimeType, Data: chunk},
		genai.Text(transcribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcription error: %w", err)
	}

	return strings.TrimSpace(responseText(resp)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// Close releases the underlying client
func (t *Transcriber) Close() error {
	return t.client.Close()
}
