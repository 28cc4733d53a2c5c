package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	q querier
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.Status == "" {
		session.Status = domain.SessionStatusActive
	}

	query := `
		INSERT INTO sessions (started_at, ended_at, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query, session.StartedAt.UTC(), session.EndedAt, session.Status).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	session.StartedAt = session.StartedAt.UTC()
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (*domain.Session, error) {
	query := `
		SELECT id, started_at, ended_at, status
		FROM sessions
		WHERE id = $1
	`
	var s domain.Session
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) MarkEnded(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET ended_at = $1, status = $2
		WHERE id = $3 AND ended_at IS NULL
	`
	tag, err := r.q.Exec(ctx, query, endedAt.UTC(), domain.SessionStatusCompleted, id)
	if err != nil {
		return false, fmt.Errorf("failed to end session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
