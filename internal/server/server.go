package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/raycity/authserver/config"
	"github.com/raycity/authserver/internal/handlers"
	"github.com/raycity/authserver/internal/services"
	"github.com/raycity/authserver/internal/store"
	"github.com/raycity/authserver/internal/token"
)

// Server wraps the HTTP server, router, and the owned credential store.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	store      store.CredentialStore
}

// New constructs a Server bound to the configured backend. An unknown or
// missing AUTH_BACKEND fails here rather than at request time.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	credStore, err := store.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := credStore.Init(ctx); err != nil {
		_ = credStore.Close(ctx)
		return nil, fmt.Errorf("init %s backend: %w", cfg.AuthBackend, err)
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = credStore.Close(ctx)
		return nil, errors.New("JWT_SECRET is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("backend", cfg.AuthBackend)
	issuer := token.NewIssuer(jwtSecret)
	authService := services.NewAuthService(credStore, issuer, logger)
	production := cfg.Env == "production"

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, issuer, production)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		store:      credStore,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.store != nil {
		_ = s.store.Close(context.Background())
	}
	return s.httpServer.Close()
}
