// Package sqlstore implements domain.Store on database/sql for SQLite and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/domain"
)

// dialect captures the statements that differ between SQLite and MySQL
type dialect struct {
	name         string
	insertIgnore string
	// lockingRead is appended to single-row reads that precede a
	// check-and-write so MySQL returns the latest committed row rather than
	// the REPEATABLE READ snapshot
	lockingRead string
}

var (
	sqliteDialect = dialect{name: "sqlite", insertIgnore: "INSERT OR IGNORE INTO"}
	mysqlDialect  = dialect{name: "mysql", insertIgnore: "INSERT IGNORE INTO", lockingRead: " FOR UPDATE"}
)

// querier is the subset of *sql.Tx used by the repositories
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a database/sql handle
type DB struct {
	*sql.DB
	dialect dialect
}

// Open connects to the SQLite or MySQL database described by cfg
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)

	switch cfg.Driver {
	case "sqlite":
		d = sqliteDialect
		db, err = sql.Open("sqlite", sqliteDSN(cfg.URL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLite allows a single writer; serialising on one connection keeps
		// transactions from failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	case "mysql":
		d = mysqlDialect
		dsn, dsnErr := mysqlDSN(cfg.URL)
		if dsnErr != nil {
			return nil, dsnErr
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: d}, nil
}

func sqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func mysqlDSN(raw string) (string, error) {
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// WithTx runs fn inside a transaction bound to fresh repositories
func (db *DB) WithTx(ctx context.Context, fn func(repos domain.Repositories) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(db.repositories(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) repositories(q querier) domain.Repositories {
	return domain.Repositories{
		Sessions:  &SessionRepository{q: q, dialect: db.dialect},
		Messages:  &MessageRepository{q: q},
		Summaries: &SummaryRepository{q: q, dialect: db.dialect},
	}
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

var _ domain.Store = (*DB)(nil)
