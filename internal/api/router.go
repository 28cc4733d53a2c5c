package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/api/handler"
	customMiddleware "github.com/Rrens/mindful-journal/internal/api/middleware"
	"github.com/Rrens/mindful-journal/internal/config"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/repository/redis"
	"github.com/Rrens/mindful-journal/internal/security"
	"github.com/Rrens/mindful-journal/internal/service"
	"github.com/Rrens/mindful-journal/internal/stream"
)

const defaultRequestTimeout = 30 * time.Second

// Deps are the components the HTTP surface is built on
type Deps struct {
	Store    domain.Store
	Sessions *service.SessionService
	Streams  stream.Dependencies
	// Redis is nil when Redis is disabled
	Redis *redis.Client
}

// NewRouter creates and configures the HTTP router. Streams run until ctx is
// cancelled or the client leaves.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	var tokens *security.StreamTokenManager
	if cfg.Stream.AuthEnabled {
		// tokens stay valid a little past the auto-end so late reconnects see a clean close
		tokens = security.NewStreamTokenManager(cfg.Stream.TokenSecret, cfg.Session.Duration()+time.Minute)
	}

	var limiter customMiddleware.Limiter
	if deps.Redis != nil {
		limiter = redis.NewRateLimiter(deps.Redis, "session_start", cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		limiter = customMiddleware.NewMemoryLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(
		limiter,
		cfg.Security.RateLimit.RequestsPerMinute+cfg.Security.RateLimit.Burst,
	)

	sessionHandler := handler.NewSessionHandler(ctx, deps.Sessions, tokens, deps.Streams, cfg.Stream.ReadLimitBytes)
	journalHandler := handler.NewJournalHandler(deps.Sessions)

	var cache handler.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}

	log.Info().
		Bool("stream_auth", tokens != nil).
		Bool("redis_rate_limit", deps.Redis != nil).
		Msg("HTTP routes configured")

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Request/response routes; the stream route is long-lived and must not time out
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Get("/health", handler.HealthCheck)
			r.Get("/ready", handler.ReadyCheck(deps.Store, cache))

			r.With(rateLimitMiddleware.Limit).Post("/session/start", sessionHandler.Start)

			r.Get("/journals", journalHandler.List)
			r.With(customMiddleware.SessionContext).Get("/journals/{sessionID}", journalHandler.Get)
		})

		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Use(customMiddleware.SessionContext)

			r.With(middleware.Timeout(timeout)).Post("/end", sessionHandler.End)

			r.Group(func(r chi.Router) {
				if tokens != nil {
					r.Use(customMiddleware.NewStreamAuthMiddleware(tokens).Authenticate)
				}
				r.Get("/stream", sessionHandler.Stream)
			})
		})
	})

	return r
}
