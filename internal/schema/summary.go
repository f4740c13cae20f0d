// Package schema reads the live catalog of the target engine and renders it
// for prompts and for the schema browser.
package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/querybot/querybot/internal/query"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Summary struct {
	Tables []Table `json:"tables"`
}

// String renders one line per table:
// TABLE <name> COLUMNS: <col> <type>, <col> <type>
func (s Summary) String() string {
	lines := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		parts := make([]string, 0, len(table.Columns))
		for _, column := range table.Columns {
			parts = append(parts, strings.TrimSpace(column.Name+" "+column.Type))
		}
		lines = append(lines, fmt.Sprintf("TABLE %s COLUMNS: %s", table.Name, strings.Join(parts, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Summarizer builds a fresh Summary on every call; nothing is cached.
type Summarizer struct {
	catalog query.Catalog
	logger  *slog.Logger
}

func NewSummarizer(catalog query.Catalog, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Summarizer{catalog: catalog, logger: logger}
}

func (s *Summarizer) Summarize(ctx context.Context) (Summary, error) {
	if s.catalog == nil {
		return Summary{}, fmt.Errorf("schema catalog is not configured")
	}
	tables, err := s.catalog.ListTables(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Tables: make([]Table, 0, len(tables))}
	for _, name := range tables {
		columns, err := s.catalog.ListColumns(ctx, name)
		if err != nil {
			return Summary{}, err
		}
		table := Table{Name: name, Columns: make([]Column, 0, len(columns))}
		for _, column := range columns {
			table.Columns = append(table.Columns, Column{Name: column.Name, Type: column.Type})
		}
		summary.Tables = append(summary.Tables, table)
	}
	s.logger.DebugContext(ctx, "schema summarized", "tables", len(summary.Tables))
	return summary, nil
}
