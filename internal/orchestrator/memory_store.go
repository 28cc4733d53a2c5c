package orchestrator

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	defaultMemoryCapacity = 1024
	defaultMemoryTTL      = time.Hour
)

type memoryItem struct {
	sessionID int64
	state     *ConversationState
	touchedAt time.Time
}

// MemoryStore is a bounded StateStore. The least recently used session is
// evicted when capacity is reached, and idle sessions expire after ttl.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[int64]*list.Element
	now      func() time.Time
}

// NewMemoryStore creates a memory store. Non-positive values fall back to defaults.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryStore{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[int64]*list.Element),
		now:      time.Now,
	}
}

// Load returns a copy of the stored state
func (s *MemoryStore) Load(_ context.Context, sessionID int64) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	item := el.Value.(*memoryItem)
	if s.now().Sub(item.touchedAt) > s.ttl {
		s.removeElement(el)
		return nil, nil
	}

	item.touchedAt = s.now()
	s.order.MoveToFront(el)
	return cloneState(item.state), nil
}

// Save stores a copy of state, evicting expired and least recently used entries
func (s *MemoryStore) Save(_ context.Context, sessionID int64, state *ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.items[sessionID]; ok {
		item := el.Value.(*memoryItem)
		item.state = cloneState(state)
		item.touchedAt = now
		s.order.MoveToFront(el)
		return nil
	}

	s.evictExpired(now)
	for s.order.Len() >= s.capacity {
		s.removeElement(s.order.Back())
	}

	s.items[sessionID] = s.order.PushFront(&memoryItem{
		sessionID: sessionID,
		state:     cloneState(state),
		touchedAt: now,
	})
	return nil
}

// Delete drops the state of a session
func (s *MemoryStore) Delete(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[sessionID]; ok {
		s.removeElement(el)
	}
	return nil
}

// Len returns the number of sessions held
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *MemoryStore) evictExpired(now time.Time) {
	for el := s.order.Back(); el != nil; {
		item := el.Value.(*memoryItem)
		if now.Sub(item.touchedAt) <= s.ttl {
			return
		}
		prev := el.Prev()
		s.removeElement(el)
		el = prev
	}
}

func (s *MemoryStore) removeElement(el *list.Element) {
	item := s.order.Remove(el).(*memoryItem)
	delete(s.items, item.sessionID)
}

func cloneState(state *ConversationState) *ConversationState {
	if state == nil {
		return nil
	}
	out := &ConversationState{
		Questions: append([]string(nil), state.Questions...),
	}
	if len(state.History) > 0 {
		out.History = append(out.History, state.History...)
	}
	return out
}
