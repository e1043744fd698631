package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/runner"
)

type setFieldRequest struct {
	Value string `json:"value"`
}

// StartFlow handles POST /api/flows/{sessionID}.
func (s *Server) StartFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.Start(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

// GetFlow handles GET /api/flows/{sessionID}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

// AbandonFlow handles DELETE /api/flows/{sessionID}.
func (s *Server) AbandonFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Flows.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err, s.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceFlow handles POST /api/flows/{sessionID}/advance.
func (s *Server) AdvanceFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.Advance(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

// RetreatFlow handles POST /api/flows/{sessionID}/retreat.
func (s *Server) RetreatFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.Retreat(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

// SetField handles PUT /api/flows/{sessionID}/fields/{field}.
func (s *Server) SetField(w http.ResponseWriter, r *http.Request) {
	var body setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SetField: Invalid request body", "error", err)
		return
	}

	value, err := runner.SanitizeInput(body.Value)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	field := domain.Field(chi.URLParam(r, "field"))
	view, err := s.Flows.SetField(r.Context(), chi.URLParam(r, "sessionID"), field, value)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

// SubmitFlow handles POST /api/flows/{sessionID}/submit.
func (s *Server) SubmitFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if view.SessionID != "" {
			writeErrorView(w, err, &view, s.logger)
			return
		}
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}
