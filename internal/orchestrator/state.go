package orchestrator

import (
	"context"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// DefaultQuestions are asked in order during every session
var DefaultQuestions = []string{
	"How was your day?",
	"What is one thing you are grateful for today?",
	"Did you encounter any challenges?",
	"How did you take care of yourself today?",
	"What is one intention for tomorrow?",
}

// ConversationState is the in-memory progress of one session.
// Questions are consumed front to back and never re-inserted.
type ConversationState struct {
	Questions []string             `json:"questions"`
	History   []domain.MessageView `json:"history"`
}

// NewConversationState returns a state seeded with the default questions
func NewConversationState() *ConversationState {
	questions := make([]string, len(DefaultQuestions))
	copy(questions, DefaultQuestions)
	return &ConversationState{Questions: questions}
}

// StateStore holds conversation state keyed by session id.
// Load returns (nil, nil) for unknown sessions.
type StateStore interface {
	Load(ctx context.Context, sessionID int64) (*ConversationState, error)
	Save(ctx context.Context, sessionID int64, state *ConversationState) error
	Delete(ctx context.Context, sessionID int64) error
}
