// Package server provides the two HTTP front-ends: a one-shot JSON-RPC
// endpoint and an SSE streaming channel. Both are thin shells over the
// same dispatcher; neither holds tool logic of its own.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/revenuepulse/pulse-mcp/internal/audit"
	"github.com/revenuepulse/pulse-mcp/internal/logger"
	"github.com/revenuepulse/pulse-mcp/internal/mcp"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

var log = logger.ForComponent("server")

// StatsSource is the read side of the invocation log, served on /stats.
type StatsSource interface {
	Summaries(ctx context.Context) ([]audit.Summary, error)
}

type Config struct {
	// Token protects the protocol endpoints with a bearer check.
	// Endpoints are open when it is empty.
	Token string
}

type Server struct {
	cfg      Config
	handler  *mcp.Handler
	stats    StatsSource
	router   *chi.Mux
	sessions *sessionStore
}

func New(cfg Config, handler *mcp.Handler, stats StatsSource) *Server {
	s := &Server{
		cfg:      cfg,
		handler:  handler,
		stats:    stats,
		router:   chi.NewRouter(),
		sessions: newSessionStore(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)

	s.router.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/mcp", s.handleRPC)
		r.Get("/sse", s.handleSSE)
		r.Post("/message", s.handleMessage)
	})

	return s
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.stats == nil {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"tools": []audit.Summary{}})
		return
	}
	summaries, err := s.stats.Summaries(r.Context())
	if err != nil {
		log.Error("failed to read invocation stats", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "stats unavailable"})
		return
	}
	if summaries == nil {
		summaries = []audit.Summary{}
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"tools": summaries})
}

// handleRPC is the request/response adapter: one JSON document in, one
// out, connection closed after the exchange.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, &protocol.Response{
			JSONRPC: protocol.Version,
			Error: &protocol.Error{
				Code:    protocol.ParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
		})
		return
	}

	resp := s.handler.Handle(r.Context(), &req)
	writeResponse(w, http.StatusOK, resp)
}

func writeResponse(w http.ResponseWriter, status int, resp *protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("failed to write response", "error", err)
	}
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
