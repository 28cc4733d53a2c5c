package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// SummaryRepository implements domain.SummaryRepository
type SummaryRepository struct {
	q       querier
	dialect dialect
}

func (r *SummaryRepository) CreateIfAbsent(ctx context.Context, summary *domain.Summary) (bool, error) {
	summary.CreatedAt = summary.CreatedAt.UTC()

	query := r.dialect.insertIgnore + ` session_summaries
		(session_id, journal_entry, recommendations, created_at)
		VALUES (?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, query,
		summary.SessionID, summary.JournalEntry, summary.Recommendations, summary.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create summary: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create summary: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if id, err := res.LastInsertId(); err == nil {
		summary.ID = id
	}
	return true, nil
}

func (r *SummaryRepository) getBySessionQuery() string {
	return `
		SELECT id, session_id, journal_entry, recommendations, created_at
		FROM session_summaries
		WHERE session_id = ?` + r.dialect.lockingRead
}

func (r *SummaryRepository) GetBySession(ctx context.Context, sessionID int64) (*domain.Summary, error) {
	var s domain.Summary
	err := r.q.QueryRowContext(ctx, r.getBySessionQuery(), sessionID).Scan(&s.ID, &s.SessionID, &s.JournalEntry, &s.Recommendations, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func (r *SummaryRepository) List(ctx context.Context, limit, offset int) ([]domain.Summary, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, session_id, journal_entry, recommendations, created_at
		FROM session_summaries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.JournalEntry, &s.Recommendations, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}
