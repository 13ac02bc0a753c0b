package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/leadchat/cmd/mainconfig"
	"github.com/wolfman30/leadchat/internal/api/router"
	"github.com/wolfman30/leadchat/internal/chat"
	appconfig "github.com/wolfman30/leadchat/internal/config"
	httpmiddleware "github.com/wolfman30/leadchat/internal/http/middleware"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/internal/webchat"
	"github.com/wolfman30/leadchat/pkg/logging"
)

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	lex, err := mainconfig.LoadLexicon(cfg)
	if err != nil {
		logging.Default().Error("failed to load lexicon", "path", cfg.LexiconPath, "error", err)
		os.Exit(1)
	}
	logger := mainconfig.NewLogger(cfg, lex)
	logger.Info("starting leadchat API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_store", cfg.SessionStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := mainconfig.Build(ctx, cfg, lex, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close connections", "error", err)
		}
	}()

	if app.Reaper != nil {
		app.Reaper.Start(ctx)
		defer app.Reaper.Stop()
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, app, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// newRouter mounts every transport over the app's engine.
func newRouter(cfg *appconfig.Config, app *mainconfig.App, limiter *httpmiddleware.RateLimiter, logger *logging.Logger) http.Handler {
	checks := map[string]router.HealthCheck{}
	if app.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return app.Pool.Ping(ctx) }
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	return router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(app.Engine, app.Guard, logger).WithMetrics(app.Metrics),
		WebchatHandler:     webchat.NewHandler(app.Engine, app.Guard, logger).WithMetrics(app.Metrics).WithAllowedOrigins(cfg.CORSAllowedOrigins),
		LeadsHandler:       leads.NewHandler(app.Leads, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		HealthChecks:       checks,
	})
}
