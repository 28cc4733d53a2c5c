package domain

import (
	"context"
	"time"
)

// SessionStatus represents the lifecycle status of a reflection session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session represents a single timed reflection session
type Session struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Status    SessionStatus `json:"status"`
}

// IsEnded reports whether the session has left the active state
func (s *Session) IsEnded() bool {
	return s.EndedAt != nil
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id int64) (*Session, error)
	// MarkEnded sets ended_at and the completed status only when the session
	// is still active. It reports whether a row was changed.
	MarkEnded(ctx context.Context, id int64, endedAt time.Time) (bool, error)
}
