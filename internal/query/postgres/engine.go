package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/querybot/querybot/internal/query"
)

var Dialect = query.Dialect{
	Name:          "PostgreSQL",
	ExplainPrefix: "EXPLAIN",
	ListTablesSQL: `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`,
	ColumnsSQL: func(table string) string {
		return `SELECT c.ordinal_position - 1, c.column_name, c.data_type, c.is_nullable = 'NO', c.column_default,
  EXISTS (
    SELECT 1 FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage k
      ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema AND tc.table_name = c.table_name
      AND k.column_name = c.column_name
  )
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = ` + table + `
ORDER BY c.ordinal_position`
	},
	ForeignKeySQL: func(table string) string {
		return `SELECT ccu.table_name, kcu.column_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = ` + table + `
ORDER BY kcu.ordinal_position`
	},
}

// NewEngine returns an engine over the PostgreSQL database at dsn. Each
// operation opens and closes its own pool.
func NewEngine(dsn string) *query.SQLEngine {
	return query.NewSQLEngine(Dialect, func(context.Context) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	})
}
