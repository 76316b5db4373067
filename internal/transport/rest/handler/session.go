package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"ssbprep/internal/model"
	"ssbprep/internal/service"
	"ssbprep/internal/session"
	"ssbprep/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// SessionHandler drives server-hosted timed sessions
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.sessions.Start(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, st)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SaveDraft handles PUT /v1/sessions/{id}/draft
func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req model.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())
	if err := h.sessions.SaveDraft(userID, id, req.Text); err != nil {
		writeSessionError(w, err)
		return
	}
	h.current(w, r, userID, id)
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())
	if err := h.sessions.Submit(userID, id); err != nil {
		writeSessionError(w, err)
		return
	}
	h.current(w, r, userID, id)
}

// Skip handles POST /v1/sessions/{id}/skip
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())
	if err := h.sessions.Skip(userID, id); err != nil {
		writeSessionError(w, err)
		return
	}
	h.current(w, r, userID, id)
}

// Abandon handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Abandon(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request, userID, id string) {
	st, err := h.sessions.Get(r.Context(), userID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTestType), errors.Is(err, session.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrEmptyPool):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusConflict, "session already finished")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
