package domain

import "context"

// Repositories groups the repositories bound to one transaction
type Repositories struct {
	Sessions  SessionRepository
	Messages  MessageRepository
	Summaries SummaryRepository
}

// Store is the durable store. Every logical operation runs inside WithTx:
// the transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
