package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terra-clan/interview-coach/internal/config"
	"github.com/terra-clan/interview-coach/internal/diagrams"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/services"
	"github.com/terra-clan/interview-coach/internal/session"
)

// requestTimeout bounds JSON requests. LLM calls dominate it.
const requestTimeout = 2 * time.Minute

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	rateLimit config.RateLimitConfig
	router    *chi.Mux
	sessions  *session.Registry
	rounds    *rounds.Table
	diagrams  diagrams.Repository
	health    *services.Registry
}

// NewServer creates a new API server. repo may be nil when diagrams are
// not persisted.
func NewServer(
	cfg config.ServerConfig,
	rateLimit config.RateLimitConfig,
	sessions *session.Registry,
	table *rounds.Table,
	repo diagrams.Repository,
	health *services.Registry,
) *Server {
	s := &Server{
		config:    cfg,
		rateLimit: rateLimit,
		sessions:  sessions,
		rounds:    table,
		diagrams:  repo,
		health:    health,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Public endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	llmLimit := httprate.LimitByIP(s.rateLimit.Requests, s.rateLimit.Window)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rounds", func(r chi.Router) {
			r.Get("/", s.handleListRounds)
			r.Get("/{round}", s.handleGetRound)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.sessionMiddleware)

				// Long-lived, so outside the request timeout
				r.Get("/events", s.handleEvents)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(requestTimeout))

					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleDeleteSession)
					r.Get("/view", s.handleGetView)
					r.Post("/rounds/end", s.handleEndRound)
					r.Post("/code/run", s.handleRunCode)
					r.Get("/diagrams", s.handleListDiagrams)
					r.Get("/diagrams/{round}", s.handleGetDiagram)
					r.Post("/reset", s.handleReset)

					r.Group(func(r chi.Router) {
						r.Use(llmLimit)

						r.Post("/rounds/{round}/start", s.handleStartRound)
						r.Post("/actions", s.handleAction)
						r.Post("/hint", s.handleHint)
						r.Post("/refresh", s.handleRefresh)
						r.Post("/diagrams", s.handleSubmitDiagram)
						r.Get("/feedback/overall", s.handleOverallFeedback)
					})
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
