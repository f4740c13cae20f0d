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

	"github.com/querybot/querybot/internal/api"
	"github.com/querybot/querybot/internal/api/uistatic"
	"github.com/querybot/querybot/internal/app"
	"github.com/querybot/querybot/internal/config"
	"github.com/querybot/querybot/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("QUERYBOT_DOTENV")); err != nil {
		slog.Error("failed to load dotenv", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("querybot-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	application, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize querybot", slog.Any("error", err))
		os.Exit(1)
	}

	deps := application.APIDependencies()
	deps.UI = uistatic.Handler()
	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", application.Engine.Dialect()),
			slog.Bool("generation_enabled", application.Generator != nil),
			slog.Bool("export_enabled", application.Publisher != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
