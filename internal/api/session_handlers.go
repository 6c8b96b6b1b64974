package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-coach/internal/controller"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/session"
)

type sessionInfo struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	LastSeen        time.Time          `json:"last_seen"`
	CurrentRound    models.RoundType   `json:"current_round,omitempty"`
	CompletedRounds []models.RoundType `json:"completed_rounds"`
	AllCompleted    bool               `json:"all_completed"`
}

func infoOf(s *session.Session) sessionInfo {
	cur, _ := s.Controller.CurrentRound()
	return sessionInfo{
		ID:              s.ID,
		CreatedAt:       s.CreatedAt,
		LastSeen:        s.LastSeen(),
		CurrentRound:    cur,
		CompletedRounds: s.State.CompletedRounds(),
		AllCompleted:    s.State.IsAllRoundsCompleted(),
	}
}

type textResponse struct {
	Text string `json:"text"`
}

// Session lifecycle

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		slog.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}
	respondJSON(w, http.StatusCreated, infoOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, infoOf(SessionFromContext(r.Context())))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", "session not found")
			return
		}
		slog.Error("failed to delete session", "error", err, "id", sess.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "status": "deleted"})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SessionFromContext(r.Context()).Hub.View())
}

// Round navigation

type startRoundRequest struct {
	Difficulty    string `json:"difficulty"`
	ConfirmSwitch bool   `json:"confirm_switch"`
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	round, err := models.ParseRoundType(chi.URLParam(r, "round"))
	if err != nil {
		respondFailure(w, err)
		return
	}

	var req startRoundRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var prompt string
	confirm := func(message string) bool {
		prompt = message
		return req.ConfirmSwitch
	}

	err = sess.Controller.StartRound(r.Context(), round, models.ParseDifficulty(req.Difficulty), confirm)
	if errors.Is(err, controller.ErrSwitchDeclined) {
		respondError(w, http.StatusConflict, "confirmation_required", prompt)
		return
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Hub.View())
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.Controller.EndCurrentRound()
	respondJSON(w, http.StatusOK, sess.Hub.View())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.Controller.Reset()
	respondJSON(w, http.StatusOK, sess.Hub.View())
}

// Candidate actions

type actionRequest struct {
	Action string `json:"action"`
	Input  string `json:"input"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := SessionFromContext(r.Context()).Controller.SubmitAction(r.Context(), models.ParseAction(req.Action), req.Input)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, textResponse{Text: reply})
}

type hintRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := SessionFromContext(r.Context()).Controller.RequestHint(r.Context(), req.Question)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, textResponse{Text: reply})
}

type refreshRequest struct {
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text, err := SessionFromContext(r.Context()).Controller.RefreshProblem(r.Context(), models.ParseDifficulty(req.Difficulty))
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, textResponse{Text: text})
}

type runCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	var req runCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = "scala"
	}

	res, err := SessionFromContext(r.Context()).Controller.RunCode(r.Context(), req.Code, req.Language)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleOverallFeedback(w http.ResponseWriter, r *http.Request) {
	text, err := SessionFromContext(r.Context()).Controller.OverallFeedback(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, textResponse{Text: text})
}

// Diagrams

type diagramRequest struct {
	Round string `json:"round"`
	XML   string `json:"xml"`
}

func (s *Server) handleSubmitDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	round, err := models.ParseRoundType(req.Round)
	if err != nil {
		respondFailure(w, err)
		return
	}

	reply, err := SessionFromContext(r.Context()).Controller.SubmitDiagram(r.Context(), req.XML, round)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, textResponse{Text: reply})
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	if s.diagrams == nil {
		respondError(w, http.StatusNotImplemented, "not_configured", "diagram storage is not configured")
		return
	}

	sess := SessionFromContext(r.Context())
	list, err := s.diagrams.List(r.Context(), sess.ID)
	if err != nil {
		slog.Error("failed to list diagrams", "error", err, "session", sess.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list diagrams")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": list,
		"total":  len(list),
	})
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	if s.diagrams == nil {
		respondError(w, http.StatusNotImplemented, "not_configured", "diagram storage is not configured")
		return
	}

	round, err := models.ParseRoundType(chi.URLParam(r, "round"))
	if err != nil {
		respondFailure(w, err)
		return
	}

	sess := SessionFromContext(r.Context())
	d, err := s.diagrams.Load(r.Context(), sess.ID, round)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}
