package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"surveywizard/internal/model"
	"surveywizard/internal/service"
	"surveywizard/internal/view"
)

// maxAnswerBody bounds the size of a submitted control snapshot
const maxAnswerBody = 64 << 10

// SessionHandler handles wizard session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	authSvc    *service.AuthService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, authSvc *service.AuthService) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		authSvc:    authSvc,
	}
}

// SessionResponse is the body of every session endpoint
type SessionResponse struct {
	SessionID  string           `json:"sessionId"`
	Token      string           `json:"token,omitempty"`
	View       view.View        `json:"view"`
	Transcript model.Transcript `json:"transcript"`
	Error      string           `json:"error,omitempty"`
}

// Create handles POST /v1/sessions?sessionId=&userId=
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	identity := model.Identity{
		SessionID: query.Get("sessionId"),
		UserID:    query.Get("userId"),
	}

	ctrl, err := h.sessionSvc.Create(r.Context(), identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := ctrl.Snapshot()
	token, err := h.authSvc.GenerateSessionToken(snap.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	resp := h.response(snap, nil)
	resp.Token = token
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.response(ctrl.Snapshot(), nil))
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	snap, err := ctrl.Start(r.Context())
	h.writeResult(w, snap, err)
}

// Submit handles POST /v1/sessions/{id}/answers
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var controls model.ControlSnapshot
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAnswerBody)).Decode(&controls); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := ctrl.SubmitControls(r.Context(), controls)
	h.writeResult(w, snap, err)
}

// Reset handles POST /v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	snap, err := ctrl.Reset()
	h.writeResult(w, snap, err)
}

// Delete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessionSvc.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*service.SurveyController, bool) {
	id := mux.Vars(r)["id"]
	ctrl, err := h.sessionSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return ctrl, true
}

func (h *SessionHandler) response(snap model.Snapshot, err error) SessionResponse {
	resp := SessionResponse{
		SessionID:  snap.ID,
		View:       h.sessionSvc.Render(snap, err),
		Transcript: snap.Transcript,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// writeResult answers with the session view even when the operation failed,
// so the page can show the inline error
func (h *SessionHandler) writeResult(w http.ResponseWriter, snap model.Snapshot, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	writeJSON(w, status, h.response(snap, err))
}

func statusFor(err error) int {
	var validation *service.ValidationError
	var source *service.SourceError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &source):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
