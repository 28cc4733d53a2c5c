package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/logger"
	"github.com/Rrens/mindful-journal/internal/migrations"
)

const usage = "usage: migrate [up|down|version|force <version>]"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	command, args := "up", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if err := run(cfg.Database, command, args); err != nil {
		log.Error().Err(err).Str("command", command).Msg("Migration failed")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.DatabaseConfig, command string, args []string) error {
	url := cfg.MigrateURL()

	switch command {
	case "up":
		return migrations.Up(cfg.Driver, url)
	case "down":
		return migrations.Down(cfg.Driver, url)
	case "version":
		m, err := migrations.New(cfg.Driver, url)
		if err != nil {
			return err
		}
		defer m.Close()

		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read version: %w", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	case "force":
		if len(args) != 1 {
			return errors.New(usage)
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		m, err := migrations.New(cfg.Driver, url)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Force(version); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		log.Info().Int("version", version).Msg("Migration version forced")
		return nil
	default:
		return errors.New(usage)
	}
}
