package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/bookclub"
	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
)

// Admin is the dashboard surface the tools run against.
type Admin interface {
	Login(ctx context.Context, email, password string) (domain.AdminSession, error)
	List(ctx context.Context, token string) ([]domain.StoredRecord, error)
	Get(ctx context.Context, token, id string) (domain.StoredRecord, error)
	Delete(ctx context.Context, token, id string) error
	ExportCSV(ctx context.Context, token string, w io.Writer) error
	WhatsAppLink(ctx context.Context, token, id string) (string, error)
	Share(ctx context.Context, token, id string) error
}

// Credentials identify the operator the agent acts as.
type Credentials struct {
	Email    string
	Password string
}

// CandidateList is the structured result of list_candidates.
type CandidateList struct {
	Count      int                   `json:"count" jsonschema_description:"Number of candidates"`
	Candidates []domain.StoredRecord `json:"candidates" jsonschema_description:"Candidates, newest first"`
}

// LinkResult is the structured result of whatsapp_link.
type LinkResult struct {
	ID  string `json:"id"`
	URL string `json:"url" jsonschema_description:"wa.me click-to-chat link with a greeting"`
}

type idArgs struct {
	ID string `json:"id"`
}

// Server exposes the candidate list to MCP clients as tools.
type Server struct {
	admin     Admin
	creds     Credentials
	mcpServer *server.MCPServer
	logger    *slog.Logger

	mu    sync.Mutex
	token string
}

// NewServer creates a new MCP Server instance.
func NewServer(admin Admin, creds Credentials, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		admin:     admin,
		creds:     creds,
		logger:    logger,
		mcpServer: server.NewMCPServer("bookclub-mcp", strings.TrimSpace(bookclub.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withToken runs fn with the operator token, signing in again once when the
// cached token has been revoked or expired.
func (s *Server) withToken(ctx context.Context, fn func(token string) error) error {
	token, err := s.currentToken(ctx)
	if err != nil {
		return err
	}
	err = fn(token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}

	s.mu.Lock()
	if s.token == token {
		s.token = ""
	}
	s.mu.Unlock()

	if token, err = s.currentToken(ctx); err != nil {
		return err
	}
	return fn(token)
}

func (s *Server) currentToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	sess, err := s.admin.Login(ctx, s.creds.Email, s.creds.Password)
	if err != nil {
		return "", fmt.Errorf("operator sign-in failed: %w", err)
	}
	s.token = sess.Token
	return s.token, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_candidates",
		mcp.WithDescription("List every signup, newest first."),
		mcp.WithOutputSchema[CandidateList](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("get_candidate",
		mcp.WithDescription("Fetch one signup by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Candidate ID")),
		mcp.WithOutputSchema[domain.StoredRecord](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("delete_candidate",
		mcp.WithDescription("Delete one signup permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Candidate ID")),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleDelete)

	s.mcpServer.AddTool(mcp.NewTool("export_candidates",
		mcp.WithDescription("Export every signup as CSV."),
	), s.handleExport)

	s.mcpServer.AddTool(mcp.NewTool("whatsapp_link",
		mcp.WithDescription("Build a WhatsApp click-to-chat link that greets the candidate."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Candidate ID")),
		mcp.WithOutputSchema[LinkResult](),
	), mcp.NewStructuredToolHandler(s.handleWhatsApp))

	s.mcpServer.AddTool(mcp.NewTool("share_candidate",
		mcp.WithDescription("Post the candidate's summary to the configured messaging channel."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Candidate ID")),
	), s.handleShare)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CandidateList, error) {
	var records []domain.StoredRecord
	err := s.withToken(ctx, func(token string) error {
		var err error
		records, err = s.admin.List(ctx, token)
		return err
	})
	if err != nil {
		return CandidateList{}, fmt.Errorf("list failed: %w", err)
	}
	if records == nil {
		records = []domain.StoredRecord{}
	}
	return CandidateList{Count: len(records), Candidates: records}, nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args idArgs) (domain.StoredRecord, error) {
	var rec domain.StoredRecord
	err := s.withToken(ctx, func(token string) error {
		var err error
		rec, err = s.admin.Get(ctx, token, args.ID)
		return err
	})
	if err != nil {
		return domain.StoredRecord{}, fmt.Errorf("get failed: %w", err)
	}
	return rec, nil
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = s.withToken(ctx, func(token string) error {
		return s.admin.Delete(ctx, token, id)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	s.logger.Info("MCP: Candidate deleted", "id", id)
	return mcp.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	err := s.withToken(ctx, func(token string) error {
		b.Reset()
		return s.admin.ExportCSV(ctx, token, &b)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleWhatsApp(ctx context.Context, request mcp.CallToolRequest, args idArgs) (LinkResult, error) {
	var link string
	err := s.withToken(ctx, func(token string) error {
		var err error
		link, err = s.admin.WhatsAppLink(ctx, token, args.ID)
		return err
	})
	if err != nil {
		return LinkResult{}, fmt.Errorf("link failed: %w", err)
	}
	return LinkResult{ID: args.ID, URL: link}, nil
}

func (s *Server) handleShare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = s.withToken(ctx, func(token string) error {
		return s.admin.Share(ctx, token, id)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("share failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("shared %s", id)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("bookclub://candidates", "Candidate List",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.handleList(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(list)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "bookclub://candidates",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
