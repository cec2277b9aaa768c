package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acgh213/pointstracker/internal/auth"
	"github.com/acgh213/pointstracker/internal/config"
	"github.com/acgh213/pointstracker/internal/db"
	"github.com/acgh213/pointstracker/internal/observability"
	"github.com/acgh213/pointstracker/internal/web"
)

const limiterSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	authService, err := auth.NewService(cfg.AuthConfig())
	if err != nil {
		slog.Error("failed to initialize admin auth", "error", err)
		os.Exit(1)
	}
	if cfg.TokenKey == "" {
		slog.Info("ADMIN_TOKEN_KEY not set; signing key derived from ADMIN_PASSWORD")
	}

	go sweepLimiter(ctx, authService.Limiter())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           web.NewRouter(pool, cfg, authService),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// sweepLimiter evicts expired login-attempt records until ctx is done.
func sweepLimiter(ctx context.Context, limiter *auth.RateLimiter) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Sweep(); removed > 0 {
				slog.Debug("swept login limiter", "removed", removed)
			}
			observability.SetTrackedClients(limiter.Len())
		}
	}
}
