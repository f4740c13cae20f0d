package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// OpenFunc returns a fresh handle for a single operation. The engine closes it
// as soon as the operation finishes.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

// Dialect carries the engine specific statements the shared database/sql
// engine needs. ColumnsSQL must select cid, name, type, notnull, default and
// pk in that order; when nil, pragma_table_info is used.
type Dialect struct {
	Name          string
	ExplainPrefix string
	ListTablesSQL string
	ColumnsSQL    func(tableLiteral string) string
	ForeignKeySQL func(tableLiteral string) string
}

type SQLEngine struct {
	dialect Dialect
	open    OpenFunc
}

func NewSQLEngine(dialect Dialect, open OpenFunc) *SQLEngine {
	return &SQLEngine{dialect: dialect, open: open}
}

func (e *SQLEngine) Dialect() string {
	return e.dialect.Name
}

func (e *SQLEngine) Execute(ctx context.Context, request Request) (Result, error) {
	if strings.TrimSpace(request.SQL) == "" {
		return Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	var result Result
	err := e.withDB(ctx, func(db *sql.DB) error {
		var err error
		if request.ReturnsRows {
			result, err = queryRows(ctx, db, request.SQL)
			return err
		}
		result, err = execCommitted(ctx, db, request.SQL)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (e *SQLEngine) Explain(ctx context.Context, statement string) error {
	sqlText := StripTrailingSemicolons(statement)
	if sqlText == "" {
		return fmt.Errorf("sql is required")
	}
	return e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, e.dialect.ExplainPrefix+" "+sqlText)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
		}
		return rows.Err()
	})
}

func (e *SQLEngine) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, e.dialect.ListTablesSQL)
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("scan table name: %w", err)
			}
			tables = append(tables, name)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (e *SQLEngine) ListColumns(ctx context.Context, table string) ([]Column, error) {
	var columns []Column
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, e.columnsSQL(table))
		if err != nil {
			return fmt.Errorf("list columns of %q: %w", table, err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				cid, notNull, pk any
				name, colType    string
				dflt             sql.NullString
			)
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				return fmt.Errorf("scan column of %q: %w", table, err)
			}
			column := Column{
				Position:   int(asInt64(cid)),
				Name:       name,
				Type:       colType,
				NotNull:    asBool(notNull),
				PrimaryKey: asBool(pk),
			}
			if dflt.Valid {
				value := dflt.String
				column.Default = &value
			}
			columns = append(columns, column)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate columns of %q: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (e *SQLEngine) columnsSQL(table string) string {
	if e.dialect.ColumnsSQL != nil {
		return e.dialect.ColumnsSQL(QuoteLiteral(table))
	}
	return `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(` + QuoteLiteral(table) + `) ORDER BY cid`
}

func (e *SQLEngine) ListForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	if e.dialect.ForeignKeySQL == nil {
		return nil, nil
	}
	var keys []ForeignKey
	err := e.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, e.dialect.ForeignKeySQL(QuoteLiteral(table)))
		if err != nil {
			return fmt.Errorf("list foreign keys of %q: %w", table, err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var refTable, from, to sql.NullString
			if err := rows.Scan(&refTable, &from, &to); err != nil {
				return fmt.Errorf("scan foreign key of %q: %w", table, err)
			}
			keys = append(keys, ForeignKey{Table: refTable.String, FromColumn: from.String, ToColumn: to.String})
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate foreign keys of %q: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (e *SQLEngine) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := e.withDB(ctx, func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&count); err != nil {
			return fmt.Errorf("count rows of %q: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (e *SQLEngine) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	if e.open == nil {
		return fmt.Errorf("%s engine has no opener", e.dialect.Name)
	}
	db, err := e.open(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.dialect.Name, err)
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

func queryRows(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Columns: columns, Rows: resultRows}, nil
}

func execCommitted(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx, sqlText)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = -1
	}
	return Result{RowsAffected: affected}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func asInt64(value any) int64 {
	switch typed := value.(type) {
	case int64:
		return typed
	case int32:
		return int64(typed)
	case int:
		return int64(typed)
	case bool:
		if typed {
			return 1
		}
	}
	return 0
}

func asBool(value any) bool {
	if typed, ok := value.(bool); ok {
		return typed
	}
	return asInt64(value) != 0
}

func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
