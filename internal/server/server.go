// Package server is the composition root: it opens the database, builds the
// backend, services and handlers, and mounts them on a chi router.
//
// main.go creates:  Config → Server
// Server.New wires: sqlite.DB → local auth backend → session.Registry
//
//	→ services → handlers → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/sakif/asynchire/internal/auth"
	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/backend/local"
	"github.com/sakif/asynchire/internal/config"
	"github.com/sakif/asynchire/internal/handler"
	"github.com/sakif/asynchire/internal/intake"
	"github.com/sakif/asynchire/internal/middleware"
	sqliteRepo "github.com/sakif/asynchire/internal/repository/sqlite"
	"github.com/sakif/asynchire/internal/service"
	"github.com/sakif/asynchire/internal/session"
	"github.com/sakif/asynchire/internal/view"
)

// Auth endpoints allow a burst of 10 per client IP, refilling at 1/s.
const (
	authRateLimit = rate.Limit(1)
	authRateBurst = 10
	authRateIdle  = 10 * time.Minute
)

// Server owns the database and the session registry; both are closed on
// shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *session.Registry
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	tokens = tokens.WithTTL(cfg.SessionTTL)

	// Both stay untyped nil unless GitHub is configured.
	var (
		exchanger  local.GitHubExchanger
		authorizer handler.GitHubAuthorizer
	)
	if cfg.GitHubEnabled() {
		gh := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
		exchanger, authorizer = gh, gh
	} else {
		logger.Info("GitHub credentials not set, GitHub sign-in disabled")
	}

	authBackend := local.NewService(db, tokens, auth.NewPasswordService(), exchanger, cfg.AdminEmails, logger)
	loader := session.NewProfileLoader(db, cfg.ProfileTimeout, logger)
	registry := session.NewRegistry(func(token string) backend.AuthClient {
		return authBackend.NewClient(token)
	}, loader, cfg.SafetyTimeout, cfg.SessionIdleTTL, logger)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: registry,
	}

	if err := s.setupRoutes(authorizer); err != nil {
		registry.Close()
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes mounts every route:
//
//	GET  /  /terms  /privacy  /pricing                  pages
//	POST /auth/signin|signup|signout                     rate limited
//	GET  /auth/github/login|callback                     only with GitHub configured
//	GET  /api/me                                         any browser
//	     /api/profile, /api/intake, /api/jobs,
//	     /api/candidates, /api/admin                     signed-in users
func (s *Server) setupRoutes(github handler.GitHubAuthorizer) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	jobService := service.NewJobService(s.db, s.logger)
	candidateService := service.NewCandidateService(s.db, s.db, s.logger)
	adminService := service.NewAdminService(s.db, s.db, s.db, s.db, s.logger)
	submitter := intake.NewSubmitter(jobService, s.db, s.db, s.logger)

	pages, err := handler.NewPageHandler(jobService, candidateService, adminService, github != nil, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(github, s.config.CookieSecure, s.logger)
	intakeHandler := handler.NewIntakeHandler(jobService, submitter, s.logger)
	candidateHandler := handler.NewCandidateHandler(jobService, candidateService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)
	limiter := middleware.NewIPRateLimiter(authRateLimit, authRateBurst, authRateIdle)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.BrowserSession(s.registry, s.config.CookieSecure))

		r.Get("/", pages.HandleIndex)
		for path, slug := range view.StaticPages {
			r.Get(path, pages.HandleStatic(slug))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter))
			r.Post("/signin", authHandler.HandleSignIn)
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/signout", authHandler.HandleSignOut)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", handler.HandleMe)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)

				r.Post("/profile/refresh", handler.HandleRefreshProfile)

				r.Get("/intake", intakeHandler.HandleGet)
				r.Post("/intake/next", intakeHandler.HandleNext)
				r.Post("/intake/back", intakeHandler.HandleBack)
				r.Post("/intake/fields", intakeHandler.HandleFields)
				r.Post("/intake/toggle", intakeHandler.HandleToggle)
				r.Post("/intake/submit", intakeHandler.HandleSubmit)

				r.Get("/jobs", candidateHandler.HandleListJobs)
				r.Get("/candidates", candidateHandler.HandleListCandidates)
				r.Post("/candidates/{id}/select", candidateHandler.HandleSelect)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/clients", adminHandler.HandleListClients)
					r.Get("/stats", adminHandler.HandleStats)
					r.Put("/jobs/{id}/candidates", adminHandler.HandleUploadCandidates)
					r.Put("/profiles/{userID}/status", adminHandler.HandleSetStatus)
				})
			})
		})
	})

	return nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the session registry and the database.
func (s *Server) Close() error {
	s.registry.Close()
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.registry.Run(sweepCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
