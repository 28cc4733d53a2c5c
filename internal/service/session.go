package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/keylock"
	"github.com/Rrens/mindful-journal/internal/orchestrator"
)

// SessionService runs the lifecycle of reflection sessions: start, end,
// finalize and the messages exchanged in between.
//
// End and Finalize are idempotent. The store's conditional writes make them
// safe across processes; within a process a per-session lock additionally
// serialises the manual path and the auto-end timer.
type SessionService struct {
	store   domain.Store
	orch    *orchestrator.Orchestrator
	locks   *keylock.Map[int64]
	autoEnd *AutoEndScheduler
	now     func() time.Time
}

// NewSessionService creates a session service whose sessions auto-end after
// autoEndAfter. A non-positive duration disables the timer.
func NewSessionService(store domain.Store, orch *orchestrator.Orchestrator, autoEndAfter time.Duration) *SessionService {
	s := &SessionService{
		store: store,
		orch:  orch,
		locks: keylock.New[int64](),
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.autoEnd = NewAutoEndScheduler(autoEndAfter, s.autoEndSession)
	return s
}

// AutoEnd returns the scheduler of the auto-end timers
func (s *SessionService) AutoEnd() *AutoEndScheduler {
	return s.autoEnd
}

// Shutdown stops all pending auto-end timers
func (s *SessionService) Shutdown() {
	s.autoEnd.Shutdown()
}

// Start creates an active session, seeds its conversation and arms the
// auto-end timer. It returns the session and the first question.
func (s *SessionService) Start(ctx context.Context) (*domain.Session, string, error) {
	session := &domain.Session{
		StartedAt: s.now(),
		Status:    domain.SessionStatusActive,
	}

	var first *domain.Message
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return err
		}

		question, err := s.orch.StartSession(ctx, session.ID)
		if err != nil {
			return err
		}

		first = &domain.Message{
			SessionID: session.ID,
			Role:      domain.RoleAssistant,
			Content:   question,
			CreatedAt: s.now(),
		}
		return repos.Messages.Create(ctx, first)
	})
	if err != nil {
		if session.ID != 0 {
			s.releaseState(ctx, session.ID)
		}
		return nil, "", fmt.Errorf("failed to start session: %w", err)
	}

	// the session row is committed; it must get its timer whatever happens next
	s.autoEnd.Schedule(session.ID)

	if err := s.orch.RecordMessage(ctx, session.ID, first.View()); err != nil {
		// summaries are built from stored messages, so a missing history entry is not fatal
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("failed to record first question")
	}

	log.Info().Int64("session_id", session.ID).Msg("session started")
	return session, first.Content, nil
}

// GetSession returns a session or domain.ErrSessionNotFound
func (s *SessionService) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	var session *domain.Session
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		var err error
		session, err = repos.Sessions.Get(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End marks a session completed. Ending an ended session returns the stored
// record unchanged.
func (s *SessionService) End(ctx context.Context, sessionID int64) (*domain.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var session *domain.Session
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		var err error
		session, err = s.end(ctx, repos, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Finalize produces the session summary once. A session that is still active
// is ended first. Later calls return the stored summary.
func (s *SessionService) Finalize(ctx context.Context, sessionID int64) (*domain.Summary, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var summary *domain.Summary
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		var err error
		summary, err = s.finalize(ctx, repos, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.releaseState(ctx, sessionID)
	return summary, nil
}

// EndAndFinalize ends and finalizes a session in one transaction
func (s *SessionService) EndAndFinalize(ctx context.Context, sessionID int64) (*domain.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var session *domain.Session
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		var err error
		session, err = s.end(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		_, err = s.finalize(ctx, repos, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.releaseState(ctx, sessionID)
	return session, nil
}

func (s *SessionService) autoEndSession(ctx context.Context, sessionID int64) error {
	_, err := s.EndAndFinalize(ctx, sessionID)
	return err
}

func (s *SessionService) end(ctx context.Context, repos domain.Repositories, sessionID int64) (*domain.Session, error) {
	session, err := repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsEnded() {
		return session, nil
	}

	if _, err := repos.Sessions.MarkEnded(ctx, sessionID, s.now()); err != nil {
		return nil, err
	}

	// re-read so a concurrent winner's ended_at is returned; repositories
	// read the latest committed row, not a transaction snapshot
	session, err = repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	log.Info().Int64("session_id", sessionID).Msg("session ended")
	return session, nil
}

func (s *SessionService) finalize(ctx context.Context, repos domain.Repositories, sessionID int64) (*domain.Summary, error) {
	existing, err := repos.Summaries.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if _, err := s.end(ctx, repos, sessionID); err != nil {
		return nil, err
	}

	messages, err := repos.Messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].View())
	}
	journalEntry, recommendations := s.orch.Summarise(views)

	summary := &domain.Summary{
		SessionID:       sessionID,
		JournalEntry:    journalEntry,
		Recommendations: recommendations,
		CreatedAt:       s.now(),
	}
	inserted, err := repos.Summaries.CreateIfAbsent(ctx, summary)
	if err != nil {
		return nil, err
	}
	if inserted {
		log.Info().Int64("session_id", sessionID).Int("messages", len(messages)).Msg("session finalized")
		return summary, nil
	}

	stored, err := repos.Summaries.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("summary for session %d vanished after conflict", sessionID)
	}
	return stored, nil
}

func (s *SessionService) releaseState(ctx context.Context, sessionID int64) {
	if err := s.orch.Release(ctx, sessionID); err != nil {
		log.Warn().Err(err).Int64("session_id", sessionID).Msg("failed to release conversation state")
	}
}

// AppendUserMessage stores a user turn and records it in the conversation
func (s *SessionService) AppendUserMessage(ctx context.Context, sessionID int64, content string) (*domain.Message, error) {
	return s.appendMessage(ctx, sessionID, domain.RoleUser, content)
}

// AppendAssistantMessage stores an assistant turn and records it in the conversation
func (s *SessionService) AppendAssistantMessage(ctx context.Context, sessionID int64, content string) (*domain.Message, error) {
	return s.appendMessage(ctx, sessionID, domain.RoleAssistant, content)
}

func (s *SessionService) appendMessage(ctx context.Context, sessionID int64, role domain.MessageRole, content string) (*domain.Message, error) {
	message := &domain.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}

	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		return repos.Messages.Create(ctx, message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s message: %w", role, err)
	}

	if err := s.orch.RecordMessage(ctx, sessionID, message.View()); err != nil {
		return nil, err
	}
	return message, nil
}

// ListJournals returns summaries newest first
func (s *SessionService) ListJournals(ctx context.Context, limit, offset int) ([]domain.Summary, error) {
	var summaries []domain.Summary
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		var err error
		summaries, err = repos.Summaries.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	return summaries, nil
}

// GetJournal returns the summary of a session with its full conversation
func (s *SessionService) GetJournal(ctx context.Context, sessionID int64) (*domain.Journal, error) {
	var journal *domain.Journal
	err := s.store.WithTx(ctx, func(repos domain.Repositories) error {
		summary, err := repos.Summaries.GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if summary == nil {
			return domain.ErrSummaryNotFound
		}

		messages, err := repos.Messages.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		journal = &domain.Journal{
			SessionID:       sessionID,
			JournalEntry:    summary.JournalEntry,
			Recommendations: summary.Recommendations,
			Messages:        messages,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return journal, nil
}
