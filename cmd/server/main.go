package main

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

	"userdir/backend/internal/config"
	userdomain "userdir/backend/internal/domain/user"
	"userdir/backend/internal/httpserver"
	"userdir/backend/internal/infrastructure/memory"
	"userdir/backend/internal/infrastructure/postgres"
	"userdir/backend/internal/infrastructure/token"
	"userdir/backend/internal/observability"
	authusecase "userdir/backend/internal/usecase/auth"
	roleusecase "userdir/backend/internal/usecase/role"
	userusecase "userdir/backend/internal/usecase/user"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, roles, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokenManager, err := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		return err
	}

	roleService := roleusecase.NewService(roles, logger)
	userService := userusecase.NewService(users, roles, logger)
	authService := authusecase.NewService(users, tokenManager)

	if cfg.SeedData {
		if err := roleService.Seed(ctx, nil); err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if err := userService.Seed(ctx); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	server := httpserver.NewServer(cfg, logger, authService, userService, roleService, observability.NewMetrics())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", server.Addr()), slog.String("store", cfg.StoreDriver))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("graceful shutdown completed")
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (userdomain.Repository, userdomain.RoleRepository, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		store := memory.New()
		return store.Users(), store.Roles(), func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("run database migrations: %w", err)
	}
	return postgres.NewUserRepository(db.Pool), postgres.NewRoleRepository(db.Pool), db.Close, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
