package speech

import (
	"context"
	"fmt"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/speech/gemini"
	"github.com/Rrens/mindful-journal/internal/speech/openai"
)

// NewTranscriber returns the transcriber selected by cfg.Transcriber
func NewTranscriber(ctx context.Context, cfg config.SpeechConfig) (Transcriber, error) {
	switch cfg.Transcriber {
	case "", "mock":
		return MockTranscriber{}, nil
	case "gemini":
		t, err := gemini.NewTranscriber(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown transcriber %q", cfg.Transcriber)
	}
}

// NewSynthesizer returns the synthesizer selected by cfg.Synthesizer
func NewSynthesizer(cfg config.SpeechConfig) (Synthesizer, error) {
	switch cfg.Synthesizer {
	case "", "silent":
		return SilentSynthesizer{}, nil
	case "openai":
		return openai.NewSynthesizer(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown synthesizer %q", cfg.Synthesizer)
	}
}
