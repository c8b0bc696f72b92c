package server

import (
	"context"
	"net/http"
	"time"

	"artisty_assistant/pkg"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Chatter is the conversational backend served over HTTP
type Chatter interface {
	Handle(ctx context.Context, sessionID, message string) pkg.ConversationTurn
	Stream(ctx context.Context, sessionID, message string) (pkg.ConversationTurn, error)
	Health(ctx context.Context) pkg.HealthStatus
}

// Server exposes the assistant. A nil assistant keeps the health endpoint up and rejects chats.
type Server struct {
	assistant      Chatter
	fallback       pkg.HealthStatus
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// New builds the server. fallback is reported by /health while the assistant is nil.
func New(assistant Chatter, fallback pkg.HealthStatus, requestTimeout time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		assistant:      assistant,
		fallback:       fallback,
		requestTimeout: requestTimeout,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

// Router returns the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Post("/chat/stream", s.chatStream)
	})

	return r
}
