package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/app"
	"github.com/odyssey-erp/stockroom/internal/auth"
	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/observability"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/platform/cache"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/swr"
	"github.com/odyssey-erp/stockroom/internal/view"
	"github.com/odyssey-erp/stockroom/internal/web"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockroom_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	cacheMetrics, err := swr.NewMetrics(metrics.Registerer())
	if err != nil {
		logger.Error("register cache metrics", slog.Any("error", err))
		os.Exit(1)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})

	spaces := pages.NewWorkspaces(client, pages.WorkspaceConfig{
		DedupeInterval: cfg.SWRDedupeInterval,
		SearchWindow:   cfg.SearchDebounce,
		Metrics:        cacheMetrics,
		Logger:         logger,
		OnCount:        metrics.SetWorkspaces,
	})

	gate := authgate.New(logger, spaces)
	client.OnError(gate.CredentialHook())

	gw := gateway.New(client)
	guard := shared.NewSubmissionGuard(redisClient, shared.DefaultSubmissionTTL)
	pageService := pages.NewService(logger, spaces, gw, guard)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(gw)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, gate)
	webHandler := web.NewHandler(logger, templates, csrfManager, gate, pageService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		WebHandler:     webHandler,
		Metrics:        metrics,
		Health: func(r *http.Request) error {
			return cache.Ping(r.Context(), redisClient)
		},
	})

	go sweepWorkspaces(ctx, logger, spaces, cfg.WorkspaceIdle)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// sweepWorkspaces drops the caches of sessions that stopped making requests.
func sweepWorkspaces(ctx context.Context, logger *slog.Logger, spaces *pages.Workspaces, idle time.Duration) {
	if idle <= 0 {
		return
	}
	interval := idle / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := spaces.Sweep(idle); n > 0 {
				logger.Debug("swept idle workspaces", slog.Int("count", n), slog.Int("live", spaces.Len()))
			}
		}
	}
}
