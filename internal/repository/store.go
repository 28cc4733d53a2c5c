// Package repository selects the durable store implementation.
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/migrations"
	"github.com/Rrens/mindful-journal/internal/repository/postgres"
	"github.com/Rrens/mindful-journal/internal/repository/sqlstore"
)

// Open migrates the database when configured to and returns the Store for
// cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (domain.Store, error) {
	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.Driver, cfg.MigrateURL()); err != nil {
			return nil, err
		}
	}

	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite", "mysql":
		db, err := sqlstore.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
