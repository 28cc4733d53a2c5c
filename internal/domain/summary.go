package domain

import (
	"context"
	"time"
)

// Summary is the journal entry produced once when a session is finalized
type Summary struct {
	ID              int64     `json:"-"`
	SessionID       int64     `json:"session_id"`
	JournalEntry    string    `json:"journal_entry"`
	Recommendations string    `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

// Journal is a summary together with the ordered conversation it was built from
type Journal struct {
	SessionID       int64     `json:"session"`
	JournalEntry    string    `json:"journal_entry"`
	Recommendations string    `json:"recommendations"`
	Messages        []Message `json:"messages"`
}

// SummaryRepository defines the interface for summary storage
type SummaryRepository interface {
	// CreateIfAbsent inserts the summary unless one already exists for the
	// session. It reports whether the row was inserted.
	CreateIfAbsent(ctx context.Context, summary *Summary) (bool, error)
	GetBySession(ctx context.Context, sessionID int64) (*Summary, error)
	// List returns summaries newest first
	List(ctx context.Context, limit, offset int) ([]Summary, error)
}
