package speech

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/speech/openai"
)

func TestMockTranscriber(t *testing.T) {
	text, err := MockTranscriber{}.Transcribe(context.Background(), make([]byte, 12))
	require.NoError(t, err)
	assert.Equal(t, "[audio chunk: 12 bytes]", text)
}

func TestSilentSynthesizer(t *testing.T) {
	audio, err := SilentSynthesizer{}.Synthesize(context.Background(), "How was your day?")
	require.NoError(t, err)
	assert.Empty(t, audio)
}

func TestNewTranscriber(t *testing.T) {
	tr, err := NewTranscriber(context.Background(), config.SpeechConfig{Transcriber: "mock"})
	require.NoError(t, err)
	assert.IsType(t, MockTranscriber{}, tr)

	_, err = NewTranscriber(context.Background(), config.SpeechConfig{Transcriber: "whisper"})
	assert.Error(t, err)

	_, err = NewTranscriber(context.Background(), config.SpeechConfig{Transcriber: "gemini"})
	assert.Error(t, err, "gemini needs an api key")
}

func TestNewSynthesizer(t *testing.T) {
	s, err := NewSynthesizer(config.SpeechConfig{Synthesizer: "silent"})
	require.NoError(t, err)
	assert.IsType(t, SilentSynthesizer{}, s)

	s, err = NewSynthesizer(config.SpeechConfig{Synthesizer: "openai", OpenAI: config.OpenAIConfig{APIKey: "k"}})
	require.NoError(t, err)
	assert.IsType(t, &openai.Synthesizer{}, s)

	_, err = NewSynthesizer(config.SpeechConfig{Synthesizer: "polly"})
	assert.Error(t, err)
}
