package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/querybot/querybot/internal/query"
)

type shipment struct {
	ID      int64  `parquet:"shipment_id"`
	Carrier string `parquet:"carrier"`
}

func TestExecuteReadsTableLoadedFromParquet(t *testing.T) {
	engine := newLoadedEngine(t, []shipment{{ID: 1, Carrier: "dhl"}, {ID: 2, Carrier: "ups"}})

	result, err := engine.Execute(context.Background(), query.Request{
		SQL:         "SELECT COUNT(*) AS c FROM shipments;",
		ReturnsRows: true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != int64(2) {
		t.Fatalf("count = %#v", result.Rows[0][0])
	}
}

func TestWritesPersistAcrossOperations(t *testing.T) {
	engine := newLoadedEngine(t, []shipment{{ID: 1, Carrier: "dhl"}, {ID: 2, Carrier: "ups"}})
	ctx := context.Background()

	result, err := engine.Execute(ctx, query.Request{SQL: "DELETE FROM shipments WHERE carrier = 'dhl'"})
	if err != nil {
		t.Fatalf("Execute(delete) error = %v", err)
	}
	if result.Rows != nil {
		t.Fatalf("Rows = %#v, want nil", result.Rows)
	}

	count, err := engine.RowCount(ctx, "shipments")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
}

func TestExplainRejectsUnknownTable(t *testing.T) {
	engine := newLoadedEngine(t, []shipment{{ID: 1, Carrier: "dhl"}})

	if err := engine.Explain(context.Background(), "SELECT * FROM shipments"); err != nil {
		t.Fatalf("Explain(valid) error = %v", err)
	}
	err := engine.Explain(context.Background(), "SELECT * FROM shipmnts")
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
	if !strings.Contains(err.Error(), "shipmnts") {
		t.Fatalf("diagnostic = %q, want table name", err.Error())
	}
}

func TestCatalogListsUserTables(t *testing.T) {
	engine := newLoadedEngine(t, []shipment{{ID: 1, Carrier: "dhl"}})
	ctx := context.Background()

	tables, err := engine.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 1 || tables[0] != "shipments" {
		t.Fatalf("tables = %v", tables)
	}

	columns, err := engine.ListColumns(ctx, "shipments")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(columns) != 2 || columns[0].Name != "shipment_id" || columns[1].Name != "carrier" {
		t.Fatalf("columns = %#v", columns)
	}
	if columns[0].Type != "BIGINT" {
		t.Fatalf("columns[0].Type = %q", columns[0].Type)
	}
	if engine.Dialect() != "DuckDB" {
		t.Fatalf("Dialect() = %q", engine.Dialect())
	}
}

func newLoadedEngine(t *testing.T, rows []shipment) *query.SQLEngine {
	t.Helper()
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "shipments.parquet")
	if err := writeParquet(parquetPath, rows); err != nil {
		t.Fatalf("writeParquet() error = %v", err)
	}

	engine := NewEngine(filepath.Join(dir, "bot.duckdb"))
	_, err := engine.Execute(context.Background(), query.Request{
		SQL: "CREATE TABLE shipments AS SELECT * FROM read_parquet(" + query.QuoteLiteral(parquetPath) + ")",
	})
	if err != nil {
		t.Fatalf("load shipments: %v", err)
	}
	return engine
}

func writeParquet(path string, rows []shipment) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := parquet.NewGenericWriter[shipment](file)
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
