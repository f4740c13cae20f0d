// Package export encodes query results as CSV or Parquet and publishes them.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// FormatForPath picks the format from a file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv"
}

func (f Format) Extension() string {
	return string(f)
}

// Table is a result set in column order.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

func Encode(w io.Writer, format Format, table Table) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, table)
	case FormatParquet:
		return encodeParquet(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
