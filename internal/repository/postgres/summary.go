package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// SummaryRepository implements domain.SummaryRepository
type SummaryRepository struct {
	q querier
}

func (r *SummaryRepository) CreateIfAbsent(ctx context.Context, summary *domain.Summary) (bool, error) {
	query := `
		INSERT INTO session_summaries (session_id, journal_entry, recommendations, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id
	`
	summary.CreatedAt = summary.CreatedAt.UTC()
	err := r.q.QueryRow(ctx, query,
		summary.SessionID,
		summary.JournalEntry,
		summary.Recommendations,
		summary.CreatedAt,
	).Scan(&summary.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create summary: %w", err)
	}
	return true, nil
}

func (r *SummaryRepository) GetBySession(ctx context.Context, sessionID int64) (*domain.Summary, error) {
	query := `
		SELECT id, session_id, journal_entry, recommendations, created_at
		FROM session_summaries
		WHERE session_id = $1
	`
	var s domain.Summary
	err := r.q.QueryRow(ctx, query, sessionID).Scan(
		&s.ID,
		&s.SessionID,
		&s.JournalEntry,
		&s.Recommendations,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &s, nil
}

func (r *SummaryRepository) List(ctx context.Context, limit, offset int) ([]domain.Summary, error) {
	query := `
		SELECT id, session_id, journal_entry, recommendations, created_at
		FROM session_summaries
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.q.Query(ctx, query, limit, offset)
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
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}
