package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id was never created
	ErrSessionNotFound = errors.New("session not found")

	// ErrSummaryNotFound is returned when a session has no journal entry yet
	ErrSummaryNotFound = errors.New("journal entry not found")
)
