package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/legalchunk/internal/chat"
	"github.com/dgallion1/legalchunk/internal/config"
	"github.com/dgallion1/legalchunk/internal/llm"
	"github.com/dgallion1/legalchunk/internal/metrics"
)

// Deps are the collaborators behind the HTTP handlers. Stats may be nil
// when no LLM backend is configured.
type Deps struct {
	Chat     chat.Service
	Stats    *llm.LLMStats
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API server for legalchunk.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if deps.Chat == nil {
		deps.Chat = chat.EchoService{}
	}
	if deps.Metrics == nil || deps.Gatherer == nil {
		reg := prometheus.NewRegistry()
		deps.Metrics = metrics.New(reg)
		deps.Gatherer = reg
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(s.deps.Metrics.Middleware)

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	// Key-gated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(s.cfg.APIKeys, s.log))

		r.Post("/chat-messages", s.handleChatMessages)
		r.Post("/api/chunk", s.handleChunk)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
