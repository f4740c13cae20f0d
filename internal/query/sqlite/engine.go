package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/querybot/querybot/internal/query"
)

var Dialect = query.Dialect{
	Name:          "SQLite",
	ExplainPrefix: "EXPLAIN QUERY PLAN",
	ListTablesSQL: `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	ForeignKeySQL: func(table string) string {
		return `SELECT "table", "from", "to" FROM pragma_foreign_key_list(` + table + `) ORDER BY id, seq`
	},
}

// NewEngine returns an engine over the SQLite file at path. Every operation
// opens its own connection and closes it when done.
func NewEngine(path string) *query.SQLEngine {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return query.NewSQLEngine(Dialect, func(context.Context) (*sql.DB, error) {
		return sql.Open("sqlite", dsn)
	})
}
