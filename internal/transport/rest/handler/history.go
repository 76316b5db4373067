package handler

import (
	"net/http"
	"ssbprep/internal/model"
	"ssbprep/internal/service"
	"ssbprep/internal/transport/rest/middleware"
	"strconv"

	"github.com/gorilla/mux"
)

// HistoryHandler serves past results and leaderboards
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List handles GET /v1/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Leaderboard handles GET /v1/leaderboard/{testType}
func (h *HistoryHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	testType := model.TestType(mux.Vars(r)["testType"])
	if !testType.Valid() {
		writeError(w, http.StatusBadRequest, service.ErrInvalidTestType.Error())
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.history.Leaderboard(r.Context(), testType, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	board := model.Leaderboard{Entries: entries}
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		rank, err := h.history.Rank(r.Context(), testType, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
			return
		}
		board.Rank = rank
	}
	writeJSON(w, http.StatusOK, board)
}
