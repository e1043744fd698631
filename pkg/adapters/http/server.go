package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/bookclub/api"
	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
)

var nopLogger = logging.NewNop()

// Flows is the signup flow as seen by the transport.
type Flows interface {
	Start(ctx context.Context, sessionID string) (flow.View, error)
	View(ctx context.Context, sessionID string) (flow.View, error)
	Advance(ctx context.Context, sessionID string) (flow.View, error)
	Retreat(ctx context.Context, sessionID string) (flow.View, error)
	SetField(ctx context.Context, sessionID string, field domain.Field, value string) (flow.View, error)
	Submit(ctx context.Context, sessionID string) (flow.View, error)
	Abandon(ctx context.Context, sessionID string) error
}

// Admin is the operator dashboard as seen by the transport.
type Admin interface {
	Login(ctx context.Context, email, password string) (domain.AdminSession, error)
	Logout(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (domain.AdminSession, error)
	List(ctx context.Context, token string) ([]domain.StoredRecord, error)
	Get(ctx context.Context, token, id string) (domain.StoredRecord, error)
	Delete(ctx context.Context, token, id string) error
	ExportCSV(ctx context.Context, token string, w io.Writer) error
	WhatsAppLink(ctx context.Context, token, id string) (string, error)
	Share(ctx context.Context, token, id string) error
	Sharing() bool
}

// Server holds the collaborators of the HTTP surface.
type Server struct {
	Flows   Flows
	Admin   Admin
	Streams *StreamManager

	metrics       http.Handler
	version       string
	secureCookies bool
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams shares a StreamManager with the flow service's change listener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the build version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithSecureCookies marks session cookies Secure (HTTPS deployments).
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secureCookies = secure
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler builds the router. A nil admin leaves the dashboard unmounted.
func NewHandler(flows Flows, admin Admin, opts ...Option) http.Handler {
	s := &Server{
		Flows:   flows,
		Admin:   admin,
		version: "dev",
		logger:  nopLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Raw())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/", s.BookPage)
	r.Post("/form", s.BookForm)

	r.Route("/api/flows/{sessionID}", func(r chi.Router) {
		r.Get("/", s.GetFlow)
		r.Post("/", s.StartFlow)
		r.Delete("/", s.AbandonFlow)
		r.Post("/advance", s.AdvanceFlow)
		r.Post("/retreat", s.RetreatFlow)
		r.Put("/fields/{field}", s.SetField)
		r.Post("/submit", s.SubmitFlow)
		r.Get("/events", s.SubscribeEvents)
	})

	if s.Admin != nil {
		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/login", s.AdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(requireToken)
				r.Post("/logout", s.AdminLogout)
				r.Get("/session", s.AdminSession)
				r.Get("/candidates", s.ListCandidates)
				r.Get("/candidates.csv", s.ExportCandidates)
				r.Get("/candidates/{id}", s.GetCandidate)
				r.Delete("/candidates/{id}", s.DeleteCandidate)
				r.Get("/candidates/{id}/whatsapp", s.CandidateWhatsApp)
				r.Post("/candidates/{id}/share", s.ShareCandidate)
			})
		})
		r.Route("/admin", func(r chi.Router) {
			r.Get("/", s.AdminPage)
			r.Post("/login", s.AdminLoginForm)
			r.Post("/logout", s.AdminLogoutForm)
			r.Post("/candidates/{id}/delete", s.AdminDeleteForm)
			r.Post("/candidates/{id}/share", s.AdminShareForm)
			r.Get("/candidates/{id}/whatsapp", s.AdminWhatsAppRedirect)
		})
	}

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Bookclub API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "bookclub-http",
		"version":     s.version,
		"api_version": api.Version(),
	}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}
