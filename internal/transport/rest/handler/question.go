package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"surveywizard/internal/model"
	"surveywizard/internal/service"
)

// QuestionHandler serves the remote question contract from a static survey,
// so a remote source can be pointed at this server
type QuestionHandler struct {
	source *service.StaticSource
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(source *service.StaticSource) *QuestionHandler {
	return &QuestionHandler{source: source}
}

// Next handles POST /v1/questions/next
func (h *QuestionHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req model.NextQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity := model.Identity{SessionID: req.SessionID, UserID: req.UserID}
	q, err := h.source.NextQuestion(r.Context(), identity, req.Transcript)
	if errors.Is(err, service.ErrEndOfSurvey) {
		writeJSON(w, http.StatusOK, model.NextQuestionResponse{IsLastQuestion: true})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.NextQuestionResponse{
		Question:        q.Prompt,
		QuestionType:    string(q.Kind),
		PossibleChoices: q.Options,
	})
}
