package duckdb

import (
	"context"
	"database/sql"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/querybot/querybot/internal/query"
)

var Dialect = query.Dialect{
	Name:          "DuckDB",
	ExplainPrefix: "EXPLAIN",
	ListTablesSQL: `SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' AND table_type = 'BASE TABLE' ORDER BY table_name`,
	ForeignKeySQL: func(table string) string {
		return `SELECT referenced_table, unnest(constraint_column_names), unnest(referenced_column_names) FROM duckdb_constraints() WHERE table_name = ` + table + ` AND constraint_type = 'FOREIGN KEY'`
	},
}

// NewEngine returns an engine over the DuckDB database at path; an empty path
// opens a throwaway in-memory database per operation.
func NewEngine(path string) *query.SQLEngine {
	return query.NewSQLEngine(Dialect, func(context.Context) (*sql.DB, error) {
		return sql.Open("duckdb", path)
	})
}
