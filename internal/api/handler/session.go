package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/api/models"
	"github.com/voisilab/voisimap/internal/api/response"
	"github.com/voisilab/voisimap/internal/api/ws"
	"github.com/voisilab/voisimap/internal/nav"
	"github.com/voisilab/voisimap/internal/ppn"
)

// SessionHandler handles navigation session endpoints.
type SessionHandler struct {
	manager *SessionManager
	logger  zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *SessionManager, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{manager: manager, logger: logger}
}

// CreateSession handles POST /v1/sessions - open a navigation session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.manager.Create()

	location := fmt.Sprintf("/v1/sessions/%s", session.ID())
	response.Created(w, r, location, models.SessionFromSnapshot(session.Snapshot()))
}

// GetSession handles GET /v1/sessions/{sessionId} - current session state.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.SessionFromSnapshot(session.Snapshot()))
}

// DeleteSession handles DELETE /v1/sessions/{sessionId} - close a session.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.manager.Remove(session.ID())
	response.NoContent(w, r)
}

// Locate handles POST /v1/sessions/{sessionId}/locate - one-shot locate.
// Geolocation failures are reported inside the session state, not as HTTP
// errors.
func (h *SessionHandler) Locate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Locate(r.Context()); err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.SessionFromSnapshot(session.Snapshot()))
}

// RequestDirections handles POST /v1/sessions/{sessionId}/directions.
func (h *SessionHandler) RequestDirections(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var input models.DirectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.PPNID == "" {
		response.BadRequest(w, r, "ppnId is required", []models.FieldError{
			{Field: "ppnId", Message: "must not be empty", Code: "required"},
		})
		return
	}

	if err := session.RequestDirections(r.Context(), input.PPNID); err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.SessionFromSnapshot(session.Snapshot()))
}

// Cancel handles POST /v1/sessions/{sessionId}/cancel - end navigation.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Cancel(); err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.SessionFromSnapshot(session.Snapshot()))
}

// Recenter handles POST /v1/sessions/{sessionId}/recenter - fit the viewport
// around the user and the destination.
func (h *SessionHandler) Recenter(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Recenter(); err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.SessionFromSnapshot(session.Snapshot()))
}

// Select handles POST /v1/sessions/{sessionId}/select - focus a PPN.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var input models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.PPNID == "" {
		response.BadRequest(w, r, "ppnId is required", []models.FieldError{
			{Field: "ppnId", Message: "must not be empty", Code: "required"},
		})
		return
	}

	if err := session.Select(r.Context(), input.PPNID); err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// Stream handles GET /v1/sessions/{sessionId}/stream - the websocket device
// position stream.
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	device, err := h.manager.Device(sessionID)
	if err != nil {
		response.NotFound(w, r, "session not found")
		return
	}

	ws.Serve(w, r, device, h.logger.With().Str("session_id", sessionID).Logger())
}

// session resolves the session from the URL, writing the error response when
// it cannot.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*nav.Session, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		response.BadRequest(w, r, "sessionId is required", nil)
		return nil, false
	}

	session, err := h.manager.Get(sessionID)
	if err != nil {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ppn.ErrNotFound):
		response.NotFound(w, r, "ppn not found")
	case errors.Is(err, nav.ErrNotNavigating):
		response.Conflict(w, r, "recenter is only available during navigation")
	case errors.Is(err, nav.ErrSessionClosed):
		response.Conflict(w, r, "session is closed")
	default:
		h.logger.Error().Err(err).Msg("session operation failed")
		response.InternalError(w, r, "session operation failed")
	}
}
