package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/domain"
)

func createSession(t *testing.T, db *DB) *domain.Session {
	t.Helper()
	s := &domain.Session{StartedAt: time.Now()}
	require.NoError(t, db.WithTx(context.Background(), func(repos domain.Repositories) error {
		return repos.Sessions.Create(context.Background(), s)
	}))
	return s
}

func TestSessionRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := createSession(t, db)
	assert.NotZero(t, s.ID)
	assert.Equal(t, domain.SessionStatusActive, s.Status)

	endedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		got, err := repos.Sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.IsEnded())
		assert.WithinDuration(t, s.StartedAt, got.StartedAt, time.Millisecond)

		changed, err := repos.Sessions.MarkEnded(ctx, s.ID, endedAt)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repos.Sessions.MarkEnded(ctx, s.ID, endedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, changed, "second end must not overwrite ended_at")

		got, err = repos.Sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, got.EndedAt)
		assert.True(t, endedAt.Equal(*got.EndedAt))
		assert.Equal(t, domain.SessionStatusCompleted, got.Status)

		missing, err := repos.Sessions.Get(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestMessageRepository_ListBySessionOrdersByTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := createSession(t, db)
	other := createSession(t, db)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		// inserted out of order on purpose
		for _, m := range []*domain.Message{
			{SessionID: s.ID, Role: domain.RoleAssistant, Content: "second", CreatedAt: base.Add(2 * time.Second)},
			{SessionID: s.ID, Role: domain.RoleUser, Content: "first", CreatedAt: base.Add(time.Second)},
			{SessionID: s.ID, Role: domain.RoleUser, Content: "third", CreatedAt: base.Add(2 * time.Second)},
			{SessionID: other.ID, Role: domain.RoleUser, Content: "elsewhere", CreatedAt: base},
		} {
			require.NoError(t, repos.Messages.Create(ctx, m))
			assert.NotZero(t, m.ID)
		}

		msgs, err := repos.Messages.ListBySession(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "first", msgs[0].Content)
		assert.Equal(t, "second", msgs[1].Content)
		assert.Equal(t, "third", msgs[2].Content)
		assert.Equal(t, domain.RoleUser, msgs[0].Role)

		empty, err := repos.Messages.ListBySession(ctx, 9999)
		require.NoError(t, err)
		assert.Empty(t, empty)
		return nil
	})
	require.NoError(t, err)
}

func TestMessageRepository_RejectsUnknownSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		return repos.Messages.Create(ctx, &domain.Message{SessionID: 4242, Role: domain.RoleUser, Content: "x", CreatedAt: time.Now()})
	})
	assert.Error(t, err)
}

func TestSummaryRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	first := createSession(t, db)
	second := createSession(t, db)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		inserted, err := repos.Summaries.CreateIfAbsent(ctx, &domain.Summary{
			SessionID: first.ID, JournalEntry: "entry one", Recommendations: "rec", CreatedAt: base,
		})
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repos.Summaries.CreateIfAbsent(ctx, &domain.Summary{
			SessionID: first.ID, JournalEntry: "duplicate", Recommendations: "rec", CreatedAt: base,
		})
		require.NoError(t, err)
		assert.False(t, inserted)

		inserted, err = repos.Summaries.CreateIfAbsent(ctx, &domain.Summary{
			SessionID: second.ID, JournalEntry: "entry two", Recommendations: "rec", CreatedAt: base.Add(time.Minute),
		})
		require.NoError(t, err)
		assert.True(t, inserted)

		got, err := repos.Summaries.GetBySession(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "entry one", got.JournalEntry)

		missing, err := repos.Summaries.GetBySession(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)

		list, err := repos.Summaries.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].SessionID, "newest first")
		assert.Equal(t, first.ID, list[1].SessionID)

		page, err := repos.Summaries.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].SessionID)
		return nil
	})
	require.NoError(t, err)
}
