package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-coach/internal/session"
)

// sessionMiddleware resolves the {id} URL parameter to a live session
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				respondError(w, http.StatusNotFound, "session_not_found", "session not found")
				return
			}
			slog.Error("failed to resolve session", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}
