package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/querybot/querybot/internal/app"
	"github.com/querybot/querybot/internal/cli/repl"
	"github.com/querybot/querybot/internal/config"
	"github.com/querybot/querybot/internal/observability"
	"github.com/querybot/querybot/internal/session"
)

func main() {
	dotenv := flag.String("env-file", ".env", "dotenv file loaded before the environment")
	limit := flag.Int("limit", 0, "row bound for read statements (configured default when 0)")
	flag.Parse()

	if err := config.LoadDotEnv(*dotenv); err != nil {
		slog.Error("failed to load dotenv", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("querybot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Logs go to stderr so they do not interleave with answers.
	logger := observability.NewLogger(cfg, os.Stderr)
	application, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize querybot", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := session.New(uuid.NewString(), application.SessionDependencies())
	ctx = observability.ContextWithSessionID(ctx, s.ID())
	r := repl.New(s, repl.Options{
		In:        os.Stdin,
		Out:       os.Stdout,
		Inspector: application.Inspector,
		Bound:     *limit,
	})
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("repl failed", slog.Any("error", err))
		os.Exit(1)
	}
}
