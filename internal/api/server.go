package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig default settings.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:        "0.0.0.0",
		Port:        8080,
		ReadTimeout: 30 * time.Second,
		// SSE chat needs a long write timeout
		WriteTimeout: 10 * time.Minute,
	}
}

// Server HTTP server fronting the engine.
type Server struct {
	config     *ServerConfig
	manager    *rag.Manager
	language   *rag.LanguageService
	summarizer *rag.Summarizer
	chat       *rag.ChatEngine
	httpSrv    *http.Server
}

// NewServer creates the server.
func NewServer(config *ServerConfig, manager *rag.Manager, language *rag.LanguageService, summarizer *rag.Summarizer, chat *rag.ChatEngine) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		config:     config,
		manager:    manager,
		language:   language,
		summarizer: summarizer,
		chat:       chat,
	}
}

// Start runs the server until it fails or is stopped.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	applog.Infof("🚀 Document API server starting on %s", addr)
	return s.httpSrv.ListenAndServe()
}

// Stop graceful shutdown.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv != nil {
		return s.httpSrv.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	indexHandler := NewIndexHandler(s.manager, s.language, s.summarizer)
	indexHandler.RegisterRoutes(r)

	chatHandler := NewChatHandler(s.chat)
	chatHandler.RegisterRoutes(r)

	return r
}

// corsMiddleware CORS middleware.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
