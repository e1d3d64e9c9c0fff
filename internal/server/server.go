// Package server wires the application together: database, services,
// handlers, middleware and routes. main.go stays minimal; this is the
// composition root where the dependency graph is assembled.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/blob"
	"github.com/tahmid/projecthub/internal/handler"
	"github.com/tahmid/projecthub/internal/middleware"
	sqliteRepo "github.com/tahmid/projecthub/internal/repository/sqlite"
	"github.com/tahmid/projecthub/internal/sandbox"
	"github.com/tahmid/projecthub/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port       int
	DBPath     string
	JWTSecret  string
	RunTimeout time.Duration
}

// Server owns the router and the database connection. The blob store and
// sandbox executor are constructed by main (their backends are
// deployment choices) and injected here.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the service layer and
// registers all routes. exec may be nil if no sandbox backend could be
// initialised; the run endpoint then reports execution as unavailable
// while everything else works.
func New(cfg Config, logger *slog.Logger, exec sandbox.Executor, blobs blob.Store) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(exec, blobs); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(exec sandbox.Executor, blobs blob.Store) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// One sqlite handle, one repository per entity; services only see
	// the interfaces they declare.
	identityService := service.NewIdentityService(s.db.Users(), tokens, s.logger)
	projectService := service.NewProjectService(s.db.Projects(), s.db.Users(), s.logger)
	workspace := service.NewWorkspace(s.db.Projects(), s.db.Chat(), s.db.Snapshots(), s.db.Attachments(), blobs, exec, s.config.RunTimeout, s.logger)

	identityHandler := handler.NewIdentityHandler(identityService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	workspaceHandler := handler.NewWorkspaceHandler(workspace, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Open endpoints: registration and login.
		r.Post("/register", identityHandler.HandleRegister)
		r.Post("/login", identityHandler.HandleLogin)
		r.Post("/logout", identityHandler.HandleLogout)

		// Everything else requires an authenticated caller. The
		// middleware puts the user id in the context; handlers pass it
		// explicitly into every service call.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", identityHandler.HandleMe)
			r.Put("/me", identityHandler.HandleUpdateProfile)
			r.Get("/community", identityHandler.HandleCommunity)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Post("/projects/{id}/join", projectHandler.HandleJoin)
			r.Post("/projects/{id}/invite", projectHandler.HandleInvite)
			r.Get("/my/projects", projectHandler.HandleListMine)

			r.Get("/projects/{id}/code", workspaceHandler.HandleLoadCode)
			r.Put("/projects/{id}/code", workspaceHandler.HandleSaveCode)
			r.Post("/projects/{id}/run", workspaceHandler.HandleRun)

			r.Get("/projects/{id}/chat", workspaceHandler.HandleRecentChat)
			r.Post("/projects/{id}/chat", workspaceHandler.HandleAppendChat)
			r.Get("/projects/{id}/messages", workspaceHandler.HandleRecentMessages)
			r.Post("/projects/{id}/messages", workspaceHandler.HandleAppendMessage)

			r.Get("/projects/{id}/files", workspaceHandler.HandleListFiles)
			r.Post("/projects/{id}/files", workspaceHandler.HandleUpload)
			r.Get("/projects/{id}/files/{filename}", workspaceHandler.HandleDownload)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // runs can take the full sandbox timeout
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
