package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/export"
	"github.com/aretw0/bookclub/pkg/flow"
	"github.com/aretw0/bookclub/pkg/runner"
)

// SessionCookie carries the reader's flow session for the HTML book.
const SessionCookie = "bookclub_session"

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type bookData struct {
	View  flow.View
	Error string
}

type dashboardData struct {
	Session  domain.AdminSession
	Records  []domain.StoredRecord
	Fields   []domain.Field
	Labels   map[domain.Field]string
	CanShare bool
	Error    string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Template render failed", "template", name, "error", err)
	}
}

// readerSession returns the flow session of the browser, issuing one when absent.
func (s *Server) readerSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// BookPage handles GET /: the book opened at the reader's page.
func (s *Server) BookPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.Flows.Start(r.Context(), s.readerSession(w, r))
	if err != nil {
		s.logger.Error("BookPage: Start failed", "error", err)
		http.Error(w, "Não foi possível abrir o formulário.", statusFor(err))
		return
	}
	s.render(w, http.StatusOK, "book", bookData{View: view})
}

// BookForm handles POST /form. The answer on the current page is saved before
// the requested action runs.
func (s *Server) BookForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	id := s.readerSession(w, r)
	action := r.PostForm.Get("action")

	if action == "restart" {
		if err := s.Flows.Abandon(ctx, id); err != nil {
			s.logger.Warn("BookForm: Abandon failed", "error", err, "session_id", id)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view, err := s.Flows.Start(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if field := view.Current.Field; field != "" && r.PostForm.Has("value") && !view.Submitted {
		value, err := runner.SanitizeInput(r.PostForm.Get("value"))
		if err != nil {
			s.render(w, http.StatusBadRequest, "book", bookData{View: view, Error: "Resposta inválida."})
			return
		}
		if view, err = s.Flows.SetField(ctx, id, field, value); err != nil && !errors.Is(err, flow.ErrSubmissionInFlight) {
			s.render(w, statusFor(err), "book", bookData{View: view, Error: err.Error()})
			return
		}
	}

	switch action {
	case "advance":
		_, err = s.Flows.Advance(ctx, id)
	case "retreat":
		_, err = s.Flows.Retreat(ctx, id)
	case "submit":
		// The failure notice is persisted on the session and shown after the redirect.
		_, err = s.Flows.Submit(ctx, id)
		if errors.Is(err, flow.ErrSubmissionFailed) || errors.Is(err, flow.ErrSubmissionInFlight) {
			err = nil
		}
	}
	if err != nil {
		s.render(w, statusFor(err), "book", bookData{View: view, Error: err.Error()})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AdminPage handles GET /admin: the login form or the candidate list.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.render(w, http.StatusOK, "login", dashboardData{})
		return
	}
	ctx := r.Context()
	sess, err := s.Admin.Session(ctx, token)
	if err != nil {
		s.clearAdminCookie(w)
		s.render(w, http.StatusOK, "login", dashboardData{})
		return
	}
	records, err := s.Admin.List(ctx, token)
	data := dashboardData{
		Session:  sess,
		Records:  records,
		Fields:   domain.Fields,
		Labels:   export.Labels,
		CanShare: s.Admin.Sharing(),
	}
	if err != nil {
		data.Error = "Não foi possível carregar as inscrições."
		s.logger.Error("AdminPage: List failed", "error", err)
	}
	if msg := r.URL.Query().Get("erro"); msg != "" && data.Error == "" {
		data.Error = msg
	}
	s.render(w, http.StatusOK, "dashboard", data)
}

// AdminLoginForm handles POST /admin/login.
func (s *Server) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	sess, err := s.Admin.Login(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		msg := "E-mail ou senha inválidos."
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			msg = "Não foi possível entrar. Tente novamente."
			s.logger.Error("AdminLoginForm: Login failed", "error", err)
		}
		s.render(w, statusFor(err), "login", dashboardData{Error: msg})
		return
	}
	s.setAdminCookie(w, sess)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// AdminLogoutForm handles POST /admin/logout.
func (s *Server) AdminLogoutForm(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := s.Admin.Logout(r.Context(), token); err != nil {
			s.logger.Warn("AdminLogoutForm: Logout failed", "error", err)
		}
	}
	s.clearAdminCookie(w)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// AdminDeleteForm handles POST /admin/candidates/{id}/delete.
func (s *Server) AdminDeleteForm(w http.ResponseWriter, r *http.Request) {
	err := s.Admin.Delete(r.Context(), bearerToken(r), chi.URLParam(r, "id"))
	s.backToDashboard(w, r, err, "Não foi possível excluir a inscrição.")
}

// AdminShareForm handles POST /admin/candidates/{id}/share.
func (s *Server) AdminShareForm(w http.ResponseWriter, r *http.Request) {
	err := s.Admin.Share(r.Context(), bearerToken(r), chi.URLParam(r, "id"))
	s.backToDashboard(w, r, err, "Não foi possível enviar a inscrição.")
}

// AdminWhatsAppRedirect handles GET /admin/candidates/{id}/whatsapp.
func (s *Server) AdminWhatsAppRedirect(w http.ResponseWriter, r *http.Request) {
	link, err := s.Admin.WhatsAppLink(r.Context(), bearerToken(r), chi.URLParam(r, "id"))
	if err != nil {
		s.backToDashboard(w, r, err, "Telefone indisponível para esta inscrição.")
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (s *Server) backToDashboard(w http.ResponseWriter, r *http.Request, err error, msg string) {
	target := "/admin"
	if err != nil {
		s.logger.Warn("Dashboard action failed", "path", r.URL.Path, "error", err)
		if !errors.Is(err, domain.ErrUnauthorized) {
			target += "?erro=" + template.URLQueryEscaper(msg)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
