package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Rrens/mindful-journal/internal/api"
	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/logger"
	"github.com/Rrens/mindful-journal/internal/orchestrator"
	"github.com/Rrens/mindful-journal/internal/repository"
	"github.com/Rrens/mindful-journal/internal/repository/redis"
	"github.com/Rrens/mindful-journal/internal/service"
	"github.com/Rrens/mindful-journal/internal/speech"
	"github.com/Rrens/mindful-journal/internal/stream"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Int("session_seconds", cfg.Session.DurationSeconds).
		Msg("Starting reflection journal server")

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
	}

	var states orchestrator.StateStore
	switch cfg.Conversation.Store {
	case "redis":
		states = redis.NewConversationStore(redisClient, cfg.Conversation.TTL)
	default:
		states = orchestrator.NewMemoryStore(cfg.Conversation.Capacity, cfg.Conversation.TTL)
	}
	orch := orchestrator.New(states)

	sessions := service.NewSessionService(store, orch, cfg.Session.Duration())
	defer sessions.Shutdown()

	transcriber, err := speech.NewTranscriber(ctx, cfg.Speech)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}
	if c, ok := transcriber.(io.Closer); ok {
		defer c.Close()
	}

	deps := stream.Dependencies{
		Messages:    sessions,
		Questions:   orch,
		Transcriber: transcriber,
	}
	if cfg.Speech.EnableTTS {
		deps.Synthesizer, err = speech.NewSynthesizer(cfg.Speech)
		if err != nil {
			return fmt.Errorf("failed to create synthesizer: %w", err)
		}
	}

	// streamCtx is cancelled after the HTTP server drains so open streams close too
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	router := api.NewRouter(streamCtx, cfg, api.Deps{
		Store:    store,
		Sessions: sessions,
		Streams:  deps,
		Redis:    redisClient,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		cancelStreams()
		if err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Int("pending_auto_ends", sessions.AutoEnd().Pending()).Msg("Server stopped")
	return nil
}
