// Package seed builds the demo supply chain database the bot is pointed at
// by default.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/querybot/querybot/internal/query"
	"github.com/querybot/querybot/internal/query/sqlite"
)

var ErrDatabaseExists = errors.New("database already exists")

type Summary struct {
	Path      string           `json:"path"`
	RowCounts map[string]int64 `json:"row_counts"`
}

type Seeder struct {
	cfg       Config
	log       *slog.Logger
	generator *Generator
}

func NewSeeder(cfg Config, logger *slog.Logger) (*Seeder, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := cfg.Sizes.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Seeder{cfg: cfg, log: logger, generator: NewGenerator(cfg.Seed)}, nil
}

// Run creates the schema and loads generated rows in a single transaction
// per step. An existing file is replaced only when Overwrite is set.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	if _, err := os.Stat(s.cfg.Path); err == nil {
		if !s.cfg.Overwrite {
			return Summary{}, fmt.Errorf("%w: %s", ErrDatabaseExists, s.cfg.Path)
		}
		s.log.Info("removing existing database", slog.String("path", s.cfg.Path))
		if err := os.Remove(s.cfg.Path); err != nil {
			return Summary{}, fmt.Errorf("remove existing database: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Summary{}, fmt.Errorf("stat database: %w", err)
	}

	engine := sqlite.NewEngine(s.cfg.Path)
	s.log.Info("creating schema", slog.String("path", s.cfg.Path))
	if _, err := engine.Execute(ctx, query.Request{SQL: schemaSQL}); err != nil {
		return Summary{}, fmt.Errorf("create schema: %w", err)
	}

	dataset := s.generator.Generate(s.cfg.Sizes)
	s.log.Info("seeding data", slog.Int("tables", len(dataset.Tables)), slog.Int64("seed", s.cfg.Seed))
	if _, err := engine.Execute(ctx, query.Request{SQL: InsertScript(dataset)}); err != nil {
		return Summary{}, fmt.Errorf("insert seed data: %w", err)
	}

	tables, err := engine.ListTables(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list seeded tables: %w", err)
	}
	summary := Summary{Path: s.cfg.Path, RowCounts: make(map[string]int64, len(tables))}
	for _, table := range tables {
		count, err := engine.RowCount(ctx, table)
		if err != nil {
			return Summary{}, fmt.Errorf("count %s: %w", table, err)
		}
		summary.RowCounts[table] = count
	}
	s.log.Info("database created", slog.String("path", s.cfg.Path), slog.Int("tables", len(tables)))
	return summary, nil
}
