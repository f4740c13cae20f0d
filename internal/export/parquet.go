package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
)

type cellKind int

const (
	kindString cellKind = iota
	kindInt
	kindFloat
	kindBool
)

// encodeParquet writes one optional leaf per result column. The leaf type is
// taken from the column's non-null values; mixed columns fall back to
// strings.
func encodeParquet(w io.Writer, table Table) error {
	names := uniqueNames(table.Columns)
	kinds := make(map[string]cellKind, len(names))
	group := parquet.Group{}
	for i, name := range names {
		kind := inferKind(table.Rows, table.Columns[i])
		kinds[name] = kind
		group[name] = parquet.Optional(leafFor(kind))
	}
	schema := parquet.NewSchema("result", group)

	// Group fields are ordered by name; leaf indexes follow that order.
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	leafIndex := make(map[string]int, len(sorted))
	for i, name := range sorted {
		leafIndex[name] = i
	}

	rows := make([]parquet.Row, 0, len(table.Rows))
	for _, source := range table.Rows {
		row := make(parquet.Row, len(sorted))
		for i, name := range names {
			idx := leafIndex[name]
			value, ok := cellValue(source[table.Columns[i]], kinds[name])
			if !ok {
				row[idx] = parquet.NullValue().Level(0, 0, idx)
				continue
			}
			row[idx] = value.Level(0, 1, idx)
		}
		rows = append(rows, row)
	}

	writer := parquet.NewWriter(w, schema)
	if _, err := writer.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func uniqueNames(columns []string) []string {
	used := make(map[string]bool, len(columns))
	names := make([]string, len(columns))
	for i, column := range columns {
		base := column
		if base == "" {
			base = "column_" + strconv.Itoa(i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func leafFor(kind cellKind) parquet.Node {
	switch kind {
	case kindInt:
		return parquet.Int(64)
	case kindFloat:
		return parquet.Leaf(parquet.DoubleType)
	case kindBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}

func inferKind(rows []map[string]any, column string) cellKind {
	kind, seen := kindString, false
	for _, row := range rows {
		value := normalizeCell(row[column])
		if value == nil {
			continue
		}
		var current cellKind
		switch value.(type) {
		case int64:
			current = kindInt
		case float64:
			current = kindFloat
		case bool:
			current = kindBool
		default:
			return kindString
		}
		if seen && current != kind {
			return kindString
		}
		kind, seen = current, true
	}
	return kind
}

func cellValue(raw any, kind cellKind) (parquet.Value, bool) {
	value := normalizeCell(raw)
	if value == nil {
		return parquet.Value{}, false
	}
	if kind == kindString {
		return parquet.ValueOf(formatCell(value)), true
	}
	return parquet.ValueOf(value), true
}

func normalizeCell(value any) any {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case float32:
		return float64(typed)
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	default:
		return typed
	}
}
