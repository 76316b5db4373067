package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"ssbprep/internal/model"
	"ssbprep/internal/service"
	"ssbprep/internal/session"
	"ssbprep/internal/transport/rest/middleware"
	"strings"
)

// AssessmentHandler scores free-standing TAT stories and WAT batches
type AssessmentHandler struct {
	scorer  *service.ScorerService
	stimuli *service.StimulusService
	history *service.HistoryService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(scorer *service.ScorerService, stimuli *service.StimulusService, history *service.HistoryService) *AssessmentHandler {
	return &AssessmentHandler{
		scorer:  scorer,
		stimuli: stimuli,
		history: history,
	}
}

// EvaluateTAT handles POST /v1/assessment/tat/evaluate
func (h *AssessmentHandler) EvaluateTAT(w http.ResponseWriter, r *http.Request) {
	var req model.TATEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageID) == "" {
		writeError(w, http.StatusBadRequest, "imageId is required")
		return
	}

	image, err := h.stimuli.Image(r.Context(), req.ImageID)
	if errors.Is(err, service.ErrImageNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "image store unavailable")
		return
	}

	story, err := h.scorer.ScoreTAT(r.Context(), *image, req.StoryText)
	if err != nil {
		writeError(w, http.StatusBadGateway, session.ErrEvaluationFailed.Error())
		return
	}

	h.history.Record(middleware.GetUserID(r.Context()), "", &model.ScoreReport{
		TestType: model.TestTypeTAT,
		TAT:      &model.TATReport{Stories: []model.TATStoryScore{*story}, Summary: story.Summary},
	})

	writeJSON(w, http.StatusOK, story)
}

// EvaluateWAT handles POST /v1/assessment/wat/evaluate
func (h *AssessmentHandler) EvaluateWAT(w http.ResponseWriter, r *http.Request) {
	var req model.WATEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Responses) == 0 {
		writeError(w, http.StatusBadRequest, "responses must not be empty")
		return
	}

	report := h.scorer.ScoreWAT(r.Context(), req.Responses)

	h.history.Record(middleware.GetUserID(r.Context()), req.ExamName, &model.ScoreReport{
		TestType: model.TestTypeWAT,
		WAT:      report,
	})

	writeJSON(w, http.StatusOK, report)
}
