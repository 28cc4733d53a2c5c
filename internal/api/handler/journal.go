package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/api/middleware"
	"github.com/Rrens/mindful-journal/internal/api/response"
	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/service"
)

const defaultJournalLimit = 50

type listJournalsQuery struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`
}

// JournalListResponse is returned by GET /journals
type JournalListResponse struct {
	Entries []domain.Summary `json:"entries"`
}

type JournalHandler struct {
	sessions *service.SessionService
}

func NewJournalHandler(sessions *service.SessionService) *JournalHandler {
	return &JournalHandler{sessions: sessions}
}

// List returns journal entries newest first
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listJournalsQuery{Limit: defaultJournalLimit}

	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			response.BadRequest(w, "limit must be an integer")
			return
		}
		q.Limit = v
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		v, err := strconv.Atoi(o)
		if err != nil {
			response.BadRequest(w, "offset must be an integer")
			return
		}
		q.Offset = v
	}

	if err := validate.Struct(q); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			response.BadRequest(w, formatValidationErrors(validationErrors))
			return
		}
		response.BadRequest(w, "invalid query")
		return
	}

	entries, err := h.sessions.ListJournals(r.Context(), q.Limit, q.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list journals")
		response.InternalError(w, "Failed to list journals")
		return
	}

	response.OK(w, JournalListResponse{Entries: entries})
}

// Get returns one journal entry with its conversation
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "invalid session ID")
		return
	}

	journal, err := h.sessions.GetJournal(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSummaryNotFound) {
			response.NotFound(w, "journal entry not found")
			return
		}
		log.Error().Err(err).Int64("session_id", sessionID).Msg("failed to get journal")
		response.InternalError(w, "Failed to get journal")
		return
	}

	response.OK(w, journal)
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = "failed on " + e.Tag() + "=" + e.Param()
	}
	return out
}
