// Package speech defines the transcription and synthesis collaborators of a
// streaming session.
package speech

import (
	"context"
	"fmt"
)

// Transcriber turns an inbound audio chunk into text
type Transcriber interface {
	Transcribe(ctx context.Context, chunk []byte) (string, error)
}

// Synthesizer turns a question into audio bytes. An empty result means there
// is nothing to send.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// MockTranscriber describes the chunk instead of transcribing it
type MockTranscriber struct{}

func (MockTranscriber) Transcribe(_ context.Context, chunk []byte) (string, error) {
	return fmt.Sprintf("[audio chunk: %d bytes]", len(chunk)), nil
}

// SilentSynthesizer produces no audio
type SilentSynthesizer struct{}

func (SilentSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return []byte{}, nil
}
