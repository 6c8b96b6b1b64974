package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-coach/internal/models"
)

// Round catalog handlers

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	all := s.rounds.All()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": all,
		"total":  len(all),
	})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	round, err := models.ParseRoundType(chi.URLParam(r, "round"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "round not found")
		return
	}
	respondJSON(w, http.StatusOK, s.rounds.Get(round))
}
