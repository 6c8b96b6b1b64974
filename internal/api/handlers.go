package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/interview-coach/internal/controller"
	"github.com/terra-clan/interview-coach/internal/diagrams"
	"github.com/terra-clan/interview-coach/internal/lifecycle"
	"github.com/terra-clan/interview-coach/internal/llm"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/runner"
	"github.com/terra-clan/interview-coach/internal/services"
)

// maxBodyBytes caps request bodies. Diagrams are the largest payload.
const maxBodyBytes = 4 << 20

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// respondFailure maps domain errors to HTTP statuses. The message is the
// same text the candidate sees in the feedback area.
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownRound):
		respondError(w, http.StatusBadRequest, "unknown_round", err.Error())
	case errors.Is(err, controller.ErrNoActiveRound):
		respondError(w, http.StatusConflict, "no_active_round", "Please select a round first.")
	case errors.Is(err, controller.ErrEmptyInput):
		respondError(w, http.StatusBadRequest, "validation_error", "Please provide your input first.")
	case errors.Is(err, runner.ErrEmptyCode):
		respondError(w, http.StatusBadRequest, "validation_error", "Please write some code first.")
	case errors.Is(err, controller.ErrActionNotPermitted):
		respondError(w, http.StatusBadRequest, "action_not_permitted", err.Error())
	case errors.Is(err, controller.ErrNoExecutor):
		respondError(w, http.StatusNotImplemented, "not_configured", err.Error())
	case errors.Is(err, lifecycle.ErrStaleFetch):
		respondError(w, http.StatusConflict, "stale_fetch", err.Error())
	case errors.Is(err, diagrams.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case llm.IsProviderError(err):
		respondError(w, http.StatusBadGateway, "provider_error", err.Error())
	default:
		respondError(w, http.StatusBadGateway, "upstream_error", err.Error())
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ready"})
		return
	}

	results := s.health.HealthCheckAll(r.Context())
	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("dependency not ready", "dependency", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !services.Healthy(results) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
