package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/migrations"
)

// newTestDB connects to the database named by TEST_POSTGRES_URL
func newTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	cfg := config.DatabaseConfig{Driver: "postgres", URL: url, MaxConns: 4, MinConns: 1}
	require.NoError(t, migrations.Up(cfg.Driver, cfg.MigrateURL()))

	db, err := NewDB(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), "TRUNCATE sessions CASCADE")
		db.Close()
	})
	return db
}

func TestStore_SessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := &domain.Session{StartedAt: time.Now()}
	require.NoError(t, db.WithTx(ctx, func(repos domain.Repositories) error {
		return repos.Sessions.Create(ctx, s)
	}))
	require.NotZero(t, s.ID)

	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		require.NoError(t, repos.Messages.Create(ctx, &domain.Message{
			SessionID: s.ID, Role: domain.RoleUser, Content: "hello", CreatedAt: time.Now(),
		}))

		changed, err := repos.Sessions.MarkEnded(ctx, s.ID, time.Now())
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repos.Sessions.MarkEnded(ctx, s.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, changed)

		inserted, err := repos.Summaries.CreateIfAbsent(ctx, &domain.Summary{
			SessionID: s.ID, JournalEntry: "entry", Recommendations: "rec", CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repos.Summaries.CreateIfAbsent(ctx, &domain.Summary{
			SessionID: s.ID, JournalEntry: "again", Recommendations: "rec", CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.False(t, inserted)
		return nil
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(repos domain.Repositories) error {
		got, err := repos.Sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsEnded())
		assert.Equal(t, domain.SessionStatusCompleted, got.Status)

		msgs, err := repos.Messages.ListBySession(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		sum, err := repos.Summaries.GetBySession(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, sum)
		assert.Equal(t, "entry", sum.JournalEntry)

		missing, err := repos.Sessions.Get(ctx, -1)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTx_SeesRowsCommittedMidTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	session := &domain.Session{StartedAt: time.Now(), Status: domain.SessionStatusActive}
	require.NoError(t, db.WithTx(ctx, func(repos domain.Repositories) error {
		return repos.Sessions.Create(ctx, session)
	}))

	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		before, err := repos.Summaries.GetBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Nil(t, before)

		// another process finalizes the session in between
		require.NoError(t, db.WithTx(ctx, func(other domain.Repositories) error {
			_, err := other.Summaries.CreateIfAbsent(ctx, &domain.Summary{
				SessionID: session.ID, JournalEntry: "winner", CreatedAt: time.Now(),
			})
			return err
		}))

		after, err := repos.Summaries.GetBySession(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, "winner", after.JournalEntry)
		return nil
	})
	require.NoError(t, err)
}
