package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/config"
)

func TestSynthesize(t *testing.T) {
	audio := []byte{0x49, 0x44, 0x33, 0x04}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req.Model)
		assert.Equal(t, "alloy", req.Voice)
		assert.Equal(t, "How was your day?", req.Input)
		assert.Equal(t, "mp3", req.ResponseFormat)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer srv.Close()

	s := NewSynthesizer(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	got, err := s.Synthesize(context.Background(), "How was your day?")
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	s := NewSynthesizer(config.OpenAIConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := s.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestSynthesize_NotConfigured(t *testing.T) {
	_, err := NewSynthesizer(config.OpenAIConfig{}).Synthesize(context.Background(), "hello")
	assert.Error(t, err)
}
