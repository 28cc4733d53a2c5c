package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/mindful-journal/internal/orchestrator"
)

const (
	conversationPrefix     = "conversation:"
	defaultConversationTTL = time.Hour
)

// ConversationStore keeps conversation state in Redis so that several
// server processes can share it. Each entry expires after ttl of inactivity.
type ConversationStore struct {
	client *Client
	ttl    time.Duration
}

// NewConversationStore creates a new Redis-backed state store
func NewConversationStore(client *Client, ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = defaultConversationTTL
	}
	return &ConversationStore{client: client, ttl: ttl}
}

func conversationKey(sessionID int64) string {
	return conversationPrefix + strconv.FormatInt(sessionID, 10)
}

// Load returns the state of a session, or nil when none is stored
func (s *ConversationStore) Load(ctx context.Context, sessionID int64) (*orchestrator.ConversationState, error) {
	data, err := s.client.rdb.Get(ctx, conversationKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	var state orchestrator.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	return &state, nil
}

// Save stores the state and refreshes its expiry
func (s *ConversationStore) Save(ctx context.Context, sessionID int64, state *orchestrator.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}

	if err := s.client.rdb.Set(ctx, conversationKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

// Delete removes the state of a session
func (s *ConversationStore) Delete(ctx context.Context, sessionID int64) error {
	if err := s.client.rdb.Del(ctx, conversationKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation state: %w", err)
	}
	return nil
}

var _ orchestrator.StateStore = (*ConversationStore)(nil)
