package domain

import (
	"context"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents one persisted turn of a session
type Message struct {
	ID        int64       `json:"-"`
	SessionID int64       `json:"-"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageView is the storage-independent view of a message kept in
// conversation state and fed to the summariser.
type MessageView struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// View converts a persisted message into a MessageView
func (m *Message) View() MessageView {
	return MessageView{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListBySession returns every message of a session, oldest first
	ListBySession(ctx context.Context, sessionID int64) ([]Message, error)
}
