package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/migrations"
)

// newTestDB opens a migrated SQLite database in a temporary directory
func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:   "sqlite",
		URL:      filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 1,
	}
	require.NoError(t, migrations.Up(cfg.Driver, cfg.MigrateURL()), "failed to run migrations")

	db, err := Open(context.Background(), cfg)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrations(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"sessions", "messages", "session_summaries"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestForeignKeys(t *testing.T) {
	db := newTestDB(t)

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var id int64
	err := db.WithTx(ctx, func(repos domain.Repositories) error {
		s := &domain.Session{}
		require.NoError(t, repos.Sessions.Create(ctx, s))
		id = s.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = db.WithTx(ctx, func(repos domain.Repositories) error {
		s, err := repos.Sessions.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, s)
		return nil
	})
	require.NoError(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres", URL: "postgres://x"})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"file:data.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		sqliteDSN("data.db"),
	)
	assert.Equal(t,
		"file:data.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		sqliteDSN("file:data.db?mode=rwc"),
	)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("user:pass@tcp(localhost:3306)/journal")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}

func TestLockingReads(t *testing.T) {
	mysqlSessions := &SessionRepository{dialect: mysqlDialect}
	mysqlSummaries := &SummaryRepository{dialect: mysqlDialect}
	assert.True(t, strings.HasSuffix(mysqlSessions.getQuery(), " FOR UPDATE"))
	assert.True(t, strings.HasSuffix(mysqlSummaries.getBySessionQuery(), " FOR UPDATE"))

	sqliteSessions := &SessionRepository{dialect: sqliteDialect}
	sqliteSummaries := &SummaryRepository{dialect: sqliteDialect}
	assert.NotContains(t, sqliteSessions.getQuery(), "FOR UPDATE")
	assert.NotContains(t, sqliteSummaries.getBySessionQuery(), "FOR UPDATE")
}
