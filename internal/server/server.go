package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/me/chorewheel/internal/config"
	"github.com/me/chorewheel/internal/logging"
	"github.com/me/chorewheel/internal/metrics"
	"github.com/me/chorewheel/internal/scheduler"
	"github.com/me/chorewheel/internal/tracker"
)

// Version is reported by the health and discovery endpoints.
const Version = "0.3.0"

// Server is the chorewheel REST API server.
type Server struct {
	router         chi.Router
	logger         *slog.Logger
	config         config.ServerConfig
	startTime      time.Time
	tracker        *tracker.Service
	scheduler      scheduler.Scheduler // optional; rollover loop
	metrics        metrics.Collector
	metricsHandler http.Handler // optional; served at /metrics
	limiter        *rate.Limiter
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithScheduler sets the rollover scheduler started by StartScheduler.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *Server) {
		s.scheduler = sched
	}
}

// WithMetrics sets the collector that counts HTTP requests and the handler
// that exposes it at /metrics.
func WithMetrics(c metrics.Collector, h http.Handler) Option {
	return func(s *Server) {
		s.metrics = c
		s.metricsHandler = h
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, svc *tracker.Service, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logging.Component(logger, "server"),
		config:    cfg,
		startTime: time.Now(),
		tracker:   svc,
		metrics:   metrics.NewNop(),
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RatePerSec)
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(burst, 1))
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// StartScheduler begins the scheduling loop in a background goroutine.
func (s *Server) StartScheduler(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	go func() {
		if err := s.scheduler.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("scheduler stopped", "error", err)
		}
	}()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger, s.metrics))

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.limiter))

		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		auth := apiAuthMiddleware(s.tracker)

		// Users. Registration and login are open; the rest needs a token.
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.handleCreateUser)
			r.Post("/login", s.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/", s.handleListUsers)
				r.Post("/logout", s.handleLogout)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.With(requireSelf("id")).Put("/", s.handleUpdateUser)
					r.With(requireSelf("id")).Get("/calendar", s.handleUserCalendar)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			// Spaces
			r.Route("/spaces", func(r chi.Router) {
				r.Get("/", s.handleListSpaces)
				r.Post("/", s.handleCreateSpace)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(s.spaceAccess)
					r.Get("/", s.handleGetSpace)
					r.Put("/", s.handleUpdateSpace)
					r.With(requireSelf("uid")).Put("/members/{uid}/availability", s.handleSpaceAvailability)
				})
			})

			// Membership requests
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", s.handleListRequests)
				r.Post("/", s.handleCreateRequest)
				r.Post("/{id}/accept", s.handleAcceptRequest)
				r.Post("/{id}/decline", s.handleDeclineRequest)
			})

			// Chores
			r.Route("/chores", func(r chi.Router) {
				r.Get("/", s.handleListChores)
				r.Post("/", s.handleCreateChore)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(s.choreAccess)
					r.Get("/", s.handleGetChore)
					r.Put("/", s.handleUpdateChore)
					r.Post("/complete", s.handleCompleteChore)
					r.Get("/participants", s.handleListParticipants)
					r.Put("/participants/{uid}", s.handleUpdateParticipant)
					r.Get("/calendar", s.handleChoreCalendar)
					r.Get("/completions", s.handleListCompletions)
				})
			})
		})
	})
}
