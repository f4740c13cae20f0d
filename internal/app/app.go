// Package app assembles the engine, generator, guard and export publisher
// from configuration. Every binary builds on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/querybot/querybot/internal/api"
	"github.com/querybot/querybot/internal/config"
	"github.com/querybot/querybot/internal/export"
	"github.com/querybot/querybot/internal/guard"
	"github.com/querybot/querybot/internal/nl2sql"
	"github.com/querybot/querybot/internal/query"
	duckdbengine "github.com/querybot/querybot/internal/query/duckdb"
	postgresengine "github.com/querybot/querybot/internal/query/postgres"
	sqliteengine "github.com/querybot/querybot/internal/query/sqlite"
	"github.com/querybot/querybot/internal/schema"
	"github.com/querybot/querybot/internal/session"
	s3store "github.com/querybot/querybot/internal/storage/s3"
)

const exportLinkExpiry = 15 * time.Minute

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Engine     *query.SQLEngine
	Summarizer *schema.Summarizer
	Inspector  *schema.Inspector
	Guard      *guard.Guard
	// Generator is nil when no API key is configured.
	Generator *nl2sql.Generator
	// Publisher and ExportStore are nil when export is disabled.
	Publisher   *export.Publisher
	ExportStore *s3store.Store
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	engine, err := OpenEngine(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Engine:     engine,
		Summarizer: schema.NewSummarizer(engine, logger),
		Inspector:  schema.NewInspector(engine, logger),
		Guard:      guard.New(engine, cfg.Guard.DefaultLimit, logger),
	}

	if cfg.AI.APIKey != "" {
		generator, err := a.buildGenerator()
		if err != nil {
			return nil, err
		}
		a.Generator = generator
	} else {
		logger.Warn("no model api key configured; generation disabled")
	}

	if cfg.Export.Enabled {
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Export.Endpoint,
			Region:           cfg.Export.Region,
			Bucket:           cfg.Export.Bucket,
			AccessKeyID:      cfg.Export.AccessKeyID,
			SecretAccessKey:  cfg.Export.SecretAccessKey,
			UseSSL:           cfg.Export.UseSSL,
			Prefix:           cfg.Export.Prefix,
			AutoCreateBucket: cfg.Export.AutoCreateBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize export store: %w", err)
		}
		a.ExportStore = store
		a.Publisher = export.NewPublisher(store, exportLinkExpiry)
	}
	return a, nil
}

// OpenEngine returns the engine for the configured driver. A SQLite database
// must already exist; DuckDB creates its file on first use. PostgreSQL is
// reached lazily on the first operation.
func OpenEngine(cfg config.DatabaseConfig) (*query.SQLEngine, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if _, err := os.Stat(cfg.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("sqlite database %q does not exist", cfg.Path)
			}
			return nil, fmt.Errorf("stat sqlite database: %w", err)
		}
		return sqliteengine.NewEngine(cfg.Path), nil
	case config.DriverDuckDB:
		return duckdbengine.NewEngine(cfg.Path), nil
	case config.DriverPostgres:
		return postgresengine.NewEngine(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

func (a *App) buildGenerator() (*nl2sql.Generator, error) {
	model, err := nl2sql.NewOpenAIModel(nl2sql.OpenAIConfig{
		BaseURL: a.Config.AI.BaseURL,
		APIKey:  a.Config.AI.APIKey,
		Model:   a.Config.AI.Model,
		Timeout: a.Config.AI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize model: %w", err)
	}

	preamble := ""
	if a.Config.AI.SystemPromptFile != "" {
		raw, err := os.ReadFile(a.Config.AI.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		preamble = string(raw)
	}

	generator, err := nl2sql.NewGenerator(model, nl2sql.NewValidator(a.Engine), a.Summarizer, nl2sql.GeneratorConfig{
		Dialect:      a.Engine.Dialect(),
		SystemPrompt: preamble,
		Temperature:  a.Config.AI.Temperature,
		TopP:         a.Config.AI.TopP,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	a.Logger.Info("model configured",
		slog.String("provider", model.Provider()),
		slog.String("model", model.ModelName()),
	)
	return generator, nil
}

func (a *App) SessionDependencies() session.Dependencies {
	deps := session.Dependencies{
		Guard:  a.Guard,
		Schema: a.Summarizer,
		Logger: a.Logger,
	}
	if a.Generator != nil {
		deps.Generator = a.Generator
	}
	return deps
}

func (a *App) APIDependencies() api.Dependencies {
	checks := []api.ReadinessCheck{
		api.CheckEngine(a.Inspector),
		api.CheckExportConfig(a.Config),
	}
	deps := api.Dependencies{
		Logger:            a.Logger,
		Sessions:          session.NewRegistry(a.SessionDependencies()),
		Schema:            a.Summarizer,
		Inspector:         a.Inspector,
		DependencyTimeout: time.Second,
	}
	if a.Publisher != nil {
		deps.Exporter = a.Publisher
		checks = append(checks, a.ExportStore.CheckBucket)
	}
	deps.Readiness = api.CombineReadinessChecks(checks...)
	return deps
}
