package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// autoEndTimeout bounds one auto-end transaction
const autoEndTimeout = 30 * time.Second

// AutoEndFunc ends and finalizes one session
type AutoEndFunc func(ctx context.Context, sessionID int64) error

// AutoEndScheduler ends sessions a fixed delay after they started. Timers are
// not cancelled by a manual end; they fire and find nothing left to do.
type AutoEndScheduler struct {
	delay time.Duration
	fn    AutoEndFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timers map[int64]*pendingEnd
	closed bool
	wg     sync.WaitGroup
}

type pendingEnd struct {
	timer *time.Timer
}

// NewAutoEndScheduler creates a scheduler running fn delay after Schedule
func NewAutoEndScheduler(delay time.Duration, fn AutoEndFunc) *AutoEndScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoEndScheduler{
		delay:  delay,
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[int64]*pendingEnd),
	}
}

// Schedule arms the timer of a session, replacing any previous one
func (s *AutoEndScheduler) Schedule(sessionID int64) {
	if s.delay <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if old, ok := s.timers[sessionID]; ok {
		old.timer.Stop()
	}

	p := &pendingEnd{}
	p.timer = time.AfterFunc(s.delay, func() { s.fire(sessionID, p) })
	s.timers[sessionID] = p
}

func (s *AutoEndScheduler) fire(sessionID int64, p *pendingEnd) {
	s.mu.Lock()
	if s.closed || s.timers[sessionID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.timers, sessionID)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, autoEndTimeout)
	defer cancel()

	err := s.fn(ctx, sessionID)
	switch {
	case err == nil:
		log.Info().Int64("session_id", sessionID).Msg("session auto-ended")
	case errors.Is(err, domain.ErrSessionNotFound):
		log.Debug().Int64("session_id", sessionID).Msg("auto-end skipped: session not found")
	default:
		log.Error().Err(err).Int64("session_id", sessionID).Msg("auto-end failed")
	}
}

// Pending reports how many timers are armed
func (s *AutoEndScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Shutdown stops every pending timer and waits for running ones to return.
// Sessions whose timers were stopped stay active.
func (s *AutoEndScheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
