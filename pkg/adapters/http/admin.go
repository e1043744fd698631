package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/bookclub/pkg/domain"
)

// AdminCookie carries the operator token for the HTML dashboard.
const AdminCookie = "bookclub_admin"

type tokenKey struct{}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// bearerToken reads the operator token from the Authorization header, falling
// back to the dashboard cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AdminCookie); err == nil {
		return c.Value
	}
	return ""
}

func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthorized.Error()}, nopLogger)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, token)))
	})
}

func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(tokenKey{}).(string)
	return token
}

// AdminLogin handles POST /api/admin/login.
func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("AdminLogin: Invalid request body", "error", err)
		return
	}
	sess, err := s.Admin.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	s.setAdminCookie(w, sess)
	writeJSON(w, http.StatusOK, sess, s.logger)
}

// AdminLogout handles POST /api/admin/logout.
func (s *Server) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Admin.Logout(r.Context(), tokenFrom(r)); err != nil {
		writeError(w, err, s.logger)
		return
	}
	s.clearAdminCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// AdminSession handles GET /api/admin/session.
func (s *Server) AdminSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Admin.Session(r.Context(), tokenFrom(r))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, sess, s.logger)
}

// ListCandidates handles GET /api/admin/candidates.
func (s *Server) ListCandidates(w http.ResponseWriter, r *http.Request) {
	records, err := s.Admin.List(r.Context(), tokenFrom(r))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	if records == nil {
		records = []domain.StoredRecord{}
	}
	writeJSON(w, http.StatusOK, records, s.logger)
}

// GetCandidate handles GET /api/admin/candidates/{id}.
func (s *Server) GetCandidate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Admin.Get(r.Context(), tokenFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, rec, s.logger)
}

// DeleteCandidate handles DELETE /api/admin/candidates/{id}.
func (s *Server) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Admin.Delete(r.Context(), tokenFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, s.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCandidates handles GET /api/admin/candidates.csv.
func (s *Server) ExportCandidates(w http.ResponseWriter, r *http.Request) {
	// Buffered so a failing store still gets a JSON error instead of a truncated file.
	var buf bytes.Buffer
	if err := s.Admin.ExportCSV(r.Context(), tokenFrom(r), &buf); err != nil {
		writeError(w, err, s.logger)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="candidatos.csv"`)
	w.Write(buf.Bytes())
}

// CandidateWhatsApp handles GET /api/admin/candidates/{id}/whatsapp.
func (s *Server) CandidateWhatsApp(w http.ResponseWriter, r *http.Request) {
	link, err := s.Admin.WhatsAppLink(r.Context(), tokenFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link}, s.logger)
}

// ShareCandidate handles POST /api/admin/candidates/{id}/share.
func (s *Server) ShareCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Admin.Share(r.Context(), tokenFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, s.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setAdminCookie(w http.ResponseWriter, sess domain.AdminSession) {
	c := &http.Cookie{
		Name:     AdminCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if !sess.ExpiresAt.IsZero() {
		c.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, c)
}

func (s *Server) clearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
