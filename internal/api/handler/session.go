package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/api/middleware"
	"github.com/Rrens/mindful-journal/internal/api/response"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/security"
	"github.com/Rrens/mindful-journal/internal/service"
	"github.com/Rrens/mindful-journal/internal/stream"
)

// StartResponse is returned by POST /session/start
type StartResponse struct {
	SessionID   int64     `json:"session_id"`
	Question    string    `json:"question"`
	StartedAt   time.Time `json:"started_at"`
	StreamToken string    `json:"stream_token,omitempty"`
}

// EndResponse is returned by POST /session/{sessionID}/end
type EndResponse struct {
	SessionID int64     `json:"session_id"`
	EndedAt   time.Time `json:"ended_at"`
}

type SessionHandler struct {
	sessions *service.SessionService
	tokens   *security.StreamTokenManager
	streams  stream.Dependencies
	upgrader websocket.Upgrader
	// readLimit caps one inbound frame
	readLimit int64
	// baseCtx outlives requests; hijacked connections are not tracked by
	// http.Server.Shutdown so streams stop when it is cancelled
	baseCtx context.Context
}

// NewSessionHandler creates a session handler. tokens is nil when stream
// authentication is disabled.
func NewSessionHandler(
	baseCtx context.Context,
	sessions *service.SessionService,
	tokens *security.StreamTokenManager,
	streams stream.Dependencies,
	readLimit int64,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		tokens:   tokens,
		streams:  streams,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		readLimit: readLimit,
		baseCtx:   baseCtx,
	}
}

// Start creates a new session
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, question, err := h.sessions.Start(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to start session")
		response.InternalError(w, "Unable to start session")
		return
	}

	resp := StartResponse{
		SessionID: session.ID,
		Question:  question,
		StartedAt: session.StartedAt,
	}
	if h.tokens != nil {
		token, err := h.tokens.Issue(session.ID)
		if err != nil {
			log.Error().Err(err).Int64("session_id", session.ID).Msg("failed to issue stream token")
			response.InternalError(w, "Unable to start session")
			return
		}
		resp.StreamToken = token
	}

	response.Created(w, resp)
}

// End ends and finalizes a session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "invalid session ID")
		return
	}

	session, err := h.sessions.EndAndFinalize(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		log.Error().Err(err).Int64("session_id", sessionID).Msg("failed to end session")
		response.InternalError(w, "Unable to end session")
		return
	}

	endedAt := time.Now().UTC()
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}
	response.OK(w, EndResponse{SessionID: sessionID, EndedAt: endedAt})
}

// Stream upgrades the request and runs the live exchange of a session
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "invalid session ID")
		return
	}

	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		log.Error().Err(err).Int64("session_id", sessionID).Msg("failed to load session")
		response.InternalError(w, "Unable to open stream")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Debug().Err(err).Int64("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	stream.NewSession(sessionID, conn, h.streams).Run(h.baseCtx)
}
