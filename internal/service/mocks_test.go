package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/mindful-journal/internal/domain"
)

// MockStore runs WithTx callbacks against mock repositories
type MockStore struct {
	mock.Mock
	Sessions  *MockSessionRepository
	Messages  *MockMessageRepository
	Summaries *MockSummaryRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		Sessions:  &MockSessionRepository{},
		Messages:  &MockMessageRepository{},
		Summaries: &MockSummaryRepository{},
	}
}

func (m *MockStore) WithTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	return fn(domain.Repositories{Sessions: m.Sessions, Messages: m.Messages, Summaries: m.Summaries})
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	return nil
}

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) MarkEnded(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, endedAt)
	return args.Bool(0), args.Error(1)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBySession(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockSummaryRepository mocks the SummaryRepository interface
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) CreateIfAbsent(ctx context.Context, summary *domain.Summary) (bool, error) {
	args := m.Called(ctx, summary)
	return args.Bool(0), args.Error(1)
}

func (m *MockSummaryRepository) GetBySession(ctx context.Context, sessionID int64) (*domain.Summary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *MockSummaryRepository) List(ctx context.Context, limit, offset int) ([]domain.Summary, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Summary), args.Error(1)
}
