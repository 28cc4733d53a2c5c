package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	q querier
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	message.CreatedAt = message.CreatedAt.UTC()
	err := r.q.QueryRow(ctx, query,
		message.SessionID,
		message.Role,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBySession retrieves the messages of a session in chronological order
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
