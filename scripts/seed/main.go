package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/gateway"
	"github.com/odyssey-erp/stockroom/internal/seed"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(apiclient.Config{
		BaseURL: getenv("API_BASE_URL", "http://localhost:8000/api/v1"),
		Timeout: 10 * time.Second,
		Logger:  logger,
	})
	gw := gateway.New(client)

	login := forms.LoginForm{
		Email:    getenv("SEED_ADMIN_EMAIL", "admin@stockroom.test"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if errs := forms.Validate(login); !errs.Empty() {
		logger.Error("admin credentials", slog.Any("error", errs))
		os.Exit(1)
	}
	auth, err := gw.Login(ctx, login)
	if err != nil {
		logger.Error("sign in", slog.Any("error", err))
		os.Exit(1)
	}
	ctx = apiclient.WithCredential(ctx, auth.Token)

	report, err := seed.New(client, gw, logger).Run(ctx, seed.DefaultCatalog())
	if err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := gw.Logout(ctx); err != nil {
		logger.Warn("sign out", slog.Any("error", err))
	}
	logger.Info("seed complete", slog.Int("created", report.Created), slog.Int("skipped", report.Skipped))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
