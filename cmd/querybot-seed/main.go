package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/querybot/querybot/internal/config"
	"github.com/querybot/querybot/internal/demo/seed"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("QUERYBOT_DOTENV")); err != nil {
		slog.Error("failed to load dotenv", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	seeder, err := seed.NewSeeder(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := seeder.Run(ctx)
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	tables := make([]string, 0, len(summary.RowCounts))
	for table := range summary.RowCounts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		logger.Info("table seeded", slog.String("table", table), slog.Int64("rows", summary.RowCounts[table]))
	}
}
