package app

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

	"twin-dashboard/internal/config"
	"twin-dashboard/internal/database"
	"twin-dashboard/internal/handler"
	"twin-dashboard/internal/logger"
	"twin-dashboard/internal/middleware"
	"twin-dashboard/internal/repository"
	"twin-dashboard/internal/router"
	"twin-dashboard/internal/service"
	"twin-dashboard/internal/token"
)

type App struct {
	cfg    *config.Config
	db     *database.DB
	server *http.Server

	// resetRepo is set only for the Postgres store; Run sweeps expired
	// password-reset tokens through it.
	resetRepo *repository.ResetRepository
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var (
		db        *database.DB
		users     service.UserStore
		resets    service.ResetStore
		twins     service.TwinStore
		resetRepo *repository.ResetRepository
	)

	switch cfg.Store {
	case config.StorePostgres:
		db, err = database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		users = repository.NewUserRepository(db.Pool)
		resetRepo = repository.NewResetRepository(db.Pool)
		resets = resetRepo
		twins = repository.NewTwinRepository(db.Pool)
	case config.StoreMemory:
		slog.Warn("using in-memory store, all data is lost on shutdown")
		users = repository.NewMemoryUserStore()
		resets = repository.NewMemoryResetStore()
		twins = repository.NewMemoryTwinStore()
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService, err := service.NewAuthService(users, resets, tokens, service.LogNotifier{}, cfg.ResetTTL)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	twinService := service.NewTwinService(twins)

	if cfg.BootstrapAdminEmail != "" && cfg.BootstrapAdminPassword != "" {
		if err := authService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	gate := middleware.NewAuthMiddleware(tokens)
	mux := router.New(cfg, gate, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(authService),
		Twin: handler.NewTwinHandler(twinService),
	})

	return &App{
		cfg:       cfg,
		db:        db,
		resetRepo: resetRepo,
		server: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      mux,
			ReadTimeout:  cfg.ServerReadTimeout,
			WriteTimeout: cfg.ServerWriteTimeout,
			IdleTimeout:  cfg.ServerIdleTimeout,
		},
	}, nil
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests before returning.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.resetRepo != nil {
		go a.sweepExpiredResets(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.server.Addr, "store", a.cfg.Store)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeDB()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.closeDB()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) closeDB() {
	if a.db != nil {
		a.db.Close()
	}
}

// sweepExpiredResets deletes expired password-reset tokens in the background.
// Consume already rejects expired tokens; this only keeps the table small.
func (a *App) sweepExpiredResets(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := a.resetRepo.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("reset token sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired reset tokens deleted", "count", deleted)
			}
		}
	}
}
