package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	q       querier
	dialect dialect
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	session.StartedAt = session.StartedAt.UTC()
	if session.Status == "" {
		session.Status = domain.SessionStatusActive
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, status) VALUES (?, ?, ?)`,
		session.StartedAt, session.EndedAt, session.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	session.ID = id
	return nil
}

func (r *SessionRepository) getQuery() string {
	return `SELECT id, started_at, ended_at, status FROM sessions WHERE id = ?` + r.dialect.lockingRead
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (*domain.Session, error) {
	var (
		s       domain.Session
		endedAt sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, r.getQuery(), id).Scan(&s.ID, &s.StartedAt, &endedAt, &s.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.StartedAt = s.StartedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		s.EndedAt = &t
	}
	return &s, nil
}

func (r *SessionRepository) MarkEnded(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, status = ? WHERE id = ? AND ended_at IS NULL`,
		endedAt.UTC(), domain.SessionStatusCompleted, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to end session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to end session: %w", err)
	}
	return n == 1, nil
}
