package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"userdir/backend/internal/config"
	"userdir/backend/internal/observability"
	authusecase "userdir/backend/internal/usecase/auth"
	roleusecase "userdir/backend/internal/usecase/role"
	userusecase "userdir/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	logger      *slog.Logger
	authService *authusecase.Service
	userService *userusecase.Service
	roleService *roleusecase.Service
	metrics     *observability.Metrics
	cfg         config.Config
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, logger *slog.Logger, authService *authusecase.Service, userService *userusecase.Service, roleService *roleusecase.Service, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		authService: authService,
		userService: userService,
		roleService: roleService,
		metrics:     metrics,
		cfg:         cfg,
	}
	srv.registerRoutes()
	srv.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
