package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/querybot/querybot/internal/query"
)

var ErrTableNotFound = errors.New("table not found")

// TableDetail is the schema browser view of one table.
type TableDetail struct {
	Name        string             `json:"name"`
	Columns     []query.Column     `json:"columns"`
	ForeignKeys []query.ForeignKey `json:"foreign_keys"`
	RowCount    int64              `json:"row_count"`
}

type Inspector struct {
	catalog query.Catalog
	logger  *slog.Logger
}

func NewInspector(catalog query.Catalog, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Inspector{catalog: catalog, logger: logger}
}

func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	tables, err := i.catalog.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Describe reports columns, foreign keys and the row count of table. A failed
// count is logged and reported as zero.
func (i *Inspector) Describe(ctx context.Context, table string) (TableDetail, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return TableDetail{}, err
	}
	if !slices.Contains(tables, table) {
		return TableDetail{}, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	columns, err := i.catalog.ListColumns(ctx, table)
	if err != nil {
		return TableDetail{}, fmt.Errorf("describe columns: %w", err)
	}
	keys, err := i.catalog.ListForeignKeys(ctx, table)
	if err != nil {
		return TableDetail{}, fmt.Errorf("describe foreign keys: %w", err)
	}
	if keys == nil {
		keys = []query.ForeignKey{}
	}

	count, err := i.catalog.RowCount(ctx, table)
	if err != nil {
		i.logger.WarnContext(ctx, "row count failed", "table", table, "error", err)
		count = 0
	}
	return TableDetail{Name: table, Columns: columns, ForeignKeys: keys, RowCount: count}, nil
}
