// Package orchestrator drives question progression and summarisation for
// reflection sessions.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/keylock"
)

const (
	journalHeader = "Daily Reflection Summary:\n"
	journalFooter = "Overall, focus on gratitude, acknowledging challenges, and planning" +
		" supportive actions for tomorrow."

	recommendationsTemplate = "1. Celebrate one positive moment from today.\n" +
		"2. Address a noted challenge with a small, concrete next step.\n" +
		"3. Schedule a self-care activity aligned with tomorrow's intention."
)

// Orchestrator owns the session id to ConversationState mapping
type Orchestrator struct {
	store StateStore
	locks *keylock.Map[int64]
}

// New creates an orchestrator backed by the given state store
func New(store StateStore) *Orchestrator {
	return &Orchestrator{
		store: store,
		locks: keylock.New[int64](),
	}
}

// StartSession installs fresh state and returns the first question without consuming it
func (o *Orchestrator) StartSession(ctx context.Context, sessionID int64) (string, error) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	state := NewConversationState()
	if err := o.store.Save(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("failed to save conversation state: %w", err)
	}
	return state.Questions[0], nil
}

// RecordMessage appends a message to the session history. Unknown sessions
// get an empty state first.
func (o *Orchestrator) RecordMessage(ctx context.Context, sessionID int64, message domain.MessageView) error {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	state, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		state = &ConversationState{}
	}

	state.History = append(state.History, message)
	if err := o.store.Save(ctx, sessionID, state); err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

// NextQuestion discards the question that was just asked and returns the
// next one. ok is false once the queue is exhausted, and also for sessions
// that were never started.
func (o *Orchestrator) NextQuestion(ctx context.Context, sessionID int64) (question string, ok bool, err error) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	state, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		return "", false, nil
	}

	if len(state.Questions) > 0 {
		state.Questions = state.Questions[1:]
		if err := o.store.Save(ctx, sessionID, state); err != nil {
			return "", false, fmt.Errorf("failed to save conversation state: %w", err)
		}
	}
	if len(state.Questions) == 0 {
		return "", false, nil
	}
	return state.Questions[0], true, nil
}

// History returns the messages recorded for a session
func (o *Orchestrator) History(ctx context.Context, sessionID int64) ([]domain.MessageView, error) {
	state, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		return nil, nil
	}
	return state.History, nil
}

// Release drops the conversation state of a finalized session
func (o *Orchestrator) Release(ctx context.Context, sessionID int64) error {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	if err := o.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete conversation state: %w", err)
	}
	return nil
}

// Summarise builds the journal entry and recommendations for an ordered
// message sequence. The output depends only on the input.
func (o *Orchestrator) Summarise(messages []domain.MessageView) (journalEntry, recommendations string) {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	journalEntry = journalHeader + strings.Join(lines, "\n") + "\n\n" + journalFooter
	return journalEntry, recommendationsTemplate
}
