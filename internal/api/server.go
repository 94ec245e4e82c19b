// Package api provides the HTTP surface of the RankDesk server: routing,
// authentication middleware, and the JSON handlers for every resource.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/ratelimit"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// Services bundles the application services the handlers depend on.
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Accounts  *service.AccountService
	Posts     *service.BlogPostService
	Backlinks *service.BacklinkService
	Invites   *service.InviteService
	Dashboard *service.DashboardService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    Services
	router      *chi.Mux
	authLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services Services, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		router:   chi.NewRouter(),
		// 10 attempts per minute per IP on credential-bearing endpoints.
		authLimiter: ratelimit.New(10.0/60.0, 10),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the server's background helpers.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1. Every route sees the actor middleware; handlers and the
	// requireAuth wrapper decide what anonymity means.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.withActor)

		// Auth endpoints (public, credential endpoints rate limited).
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimited).Post("/register", s.handleRegister)
			r.Get("/verify-email/{token}", s.handleVerifyEmail)
			r.With(s.rateLimited).Post("/login", s.handleLogin)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password/{token}", s.handleResetPassword)
		})

		// Profile (self-service).
		r.Route("/profile", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
		})

		// User administration.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/clients", s.handleListAgencyClients)
			r.Post("/", s.handleCreateUser)
			r.Get("/", s.handleListUsers)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		// SEO accounts. Listing stays open to anonymous readers.
		r.Route("/seo-accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Get("/agency/{agencyId}", s.handleListAccountsByAgency)
			r.With(s.requireAuth).Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.With(s.requireAuth).Put("/{id}", s.handleUpdateAccount)
			r.With(s.requireAuth).Delete("/{id}", s.handleDeleteAccount)
		})

		// Blog posts.
		r.Route("/blog-posts", func(r chi.Router) {
			r.Post("/", s.handleCreatePost)
			r.Get("/", s.handleListPosts)
			r.Get("/{id}", s.handleGetPost)
			r.With(s.requireAuth).Put("/{id}", s.handleUpdatePost)
			r.With(s.requireAuth).Delete("/{id}", s.handleDeletePost)
		})

		// Backlinks.
		r.Route("/backlinks", func(r chi.Router) {
			r.With(s.requireAuth).Post("/", s.handleCreateBacklink)
			r.Get("/", s.handleListBacklinks)
			r.Get("/summary/{seoAccountId}", s.handleBacklinkSummary)
			r.Get("/seo-account/{seoAccountId}", s.handleListBacklinksByAccount)
			r.Get("/{id}", s.handleGetBacklink)
			r.With(s.requireAuth).Put("/{id}", s.handleUpdateBacklink)
			r.With(s.requireAuth).Delete("/{id}", s.handleDeleteBacklink)
		})

		// Client invitation flow (public, redemption rate limited).
		r.Route("/clients", func(r chi.Router) {
			r.Get("/verify/{token}", s.handleVerifyInvitation)
			r.With(s.rateLimited).Post("/register/{token}", s.handleRedeemInvitation)
		})

		// Dashboard.
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/stats", s.handleDashboardStats)
			r.Get("/activity", s.handleDashboardActivity)
			r.Get("/user-stats", s.handleDashboardUserStats)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
