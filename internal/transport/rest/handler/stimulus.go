package handler

import (
	"net/http"
	"ssbprep/internal/service"
)

// StimulusHandler serves the TAT and WAT stimulus pools
type StimulusHandler struct {
	stimuli *service.StimulusService
}

// NewStimulusHandler creates a new stimulus handler
func NewStimulusHandler(stimuli *service.StimulusService) *StimulusHandler {
	return &StimulusHandler{stimuli: stimuli}
}

// ListImages handles GET /v1/stimuli/images
func (h *StimulusHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stimuli.ListImages(r.Context()))
}

// ListWords handles GET /v1/stimuli/words
func (h *StimulusHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	words, fallback := h.stimuli.ListWords(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words":    words,
		"fallback": fallback,
	})
}
