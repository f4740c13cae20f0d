package query

import (
	"context"
	"time"
)

// Request is a single statement handed to an engine. ReturnsRows selects the
// row-returning path; otherwise the statement runs in a transaction that is
// committed on success and no rows are reported.
type Request struct {
	SQL         string
	ReturnsRows bool
}

type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
	Duration     time.Duration
}

// Records returns the rows keyed by column name, in row order.
func (r Result) Records() []map[string]any {
	if r.Rows == nil {
		return nil
	}
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))
		for i, column := range r.Columns {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

type Column struct {
	Position   int     `json:"cid"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	NotNull    bool    `json:"notnull"`
	Default    *string `json:"dflt_value"`
	PrimaryKey bool    `json:"pk"`
}

type ForeignKey struct {
	Table      string `json:"table"`
	FromColumn string `json:"from"`
	ToColumn   string `json:"to"`
}

type Executor interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// Planner asks the engine for a query plan without running the statement.
type Planner interface {
	Explain(ctx context.Context, statement string) error
}

type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]Column, error)
	ListForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
	RowCount(ctx context.Context, table string) (int64, error)
}

type Engine interface {
	Executor
	Planner
	Catalog
	Dialect() string
}
