package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/querybot/querybot/internal/storage"
)

var rowCounts = Table{
	Columns: []string{"table_name", "row_count", "share"},
	Rows: []map[string]any{
		{"table_name": "orders", "row_count": int64(3), "share": 0.6},
		{"table_name": "products, archived", "row_count": int64(2), "share": nil},
	},
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatCSV, rowCounts); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := "table_name,row_count,share\norders,3,0.6\n\"products, archived\",2,\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestEncodeParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatParquet, rowCounts); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if file.NumRows() != 2 {
		t.Fatalf("NumRows() = %d", file.NumRows())
	}

	fields := map[string]parquet.Field{}
	for _, field := range file.Schema().Fields() {
		fields[field.Name()] = field
	}
	if len(fields) != 3 {
		t.Fatalf("fields = %v", fields)
	}
	if kind := fields["row_count"].Type().Kind(); kind != parquet.Int64 {
		t.Fatalf("row_count kind = %v", kind)
	}
	if kind := fields["share"].Type().Kind(); kind != parquet.Double {
		t.Fatalf("share kind = %v", kind)
	}
	if !fields["share"].Optional() {
		t.Fatal("share should be optional")
	}

	reader := parquet.NewReader(bytes.NewReader(buf.Bytes()))
	defer func() { _ = reader.Close() }()
	rows := make([]parquet.Row, 2)
	n, err := reader.ReadRows(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("ReadRows() = %d", n)
	}
	// Leaves are ordered by name: row_count, share, table_name.
	if got := rows[0][0].Int64(); got != 3 {
		t.Fatalf("row_count = %d", got)
	}
	if !rows[1][1].IsNull() {
		t.Fatalf("share = %v, want null", rows[1][1])
	}
	if got := rows[1][2].String(); got != "products, archived" {
		t.Fatalf("table_name = %q", got)
	}
}

func TestInferKindFallsBackToString(t *testing.T) {
	rows := []map[string]any{{"v": int64(1)}, {"v": "two"}}
	if kind := inferKind(rows, "v"); kind != kindString {
		t.Fatalf("inferKind() = %v", kind)
	}
	rows = []map[string]any{{"v": int32(1)}, {"v": nil}, {"v": 3}}
	if kind := inferKind(rows, "v"); kind != kindInt {
		t.Fatalf("inferKind() = %v", kind)
	}
}

func TestUniqueNames(t *testing.T) {
	cases := []struct {
		columns []string
		want    []string
	}{
		{columns: []string{"c", "c", "", "d"}, want: []string{"c", "c_2", "column_3", "d"}},
		{columns: []string{"a", "a", "a_2"}, want: []string{"a", "a_2", "a_2_2"}},
		{columns: []string{"", "column_1"}, want: []string{"column_1", "column_1_2"}},
		{columns: []string{"id", "id", "id", "id_2"}, want: []string{"id", "id_2", "id_3", "id_2_2"}},
	}
	for _, tc := range cases {
		got := uniqueNames(tc.columns)
		if len(got) != len(tc.want) {
			t.Fatalf("uniqueNames(%v) = %v, want %v", tc.columns, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("uniqueNames(%v) = %v, want %v", tc.columns, got, tc.want)
			}
		}
	}
}

func TestEncodeParquetCollidingColumnNames(t *testing.T) {
	table := Table{
		Columns: []string{"", "column_1"},
		Rows: []map[string]any{
			{"": int64(1), "column_1": "north"},
			{"": int64(2), "column_1": nil},
		},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, FormatParquet, table); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if file.NumRows() != 2 {
		t.Fatalf("NumRows() = %d", file.NumRows())
	}
	fields := file.Schema().Fields()
	if len(fields) != 2 {
		t.Fatalf("fields = %v", fields)
	}
	// Leaves are ordered by name: column_1, column_1_2.
	if fields[0].Name() != "column_1" || fields[1].Name() != "column_1_2" {
		t.Fatalf("field names = %q, %q", fields[0].Name(), fields[1].Name())
	}
	if kind := fields[0].Type().Kind(); kind != parquet.Int64 {
		t.Fatalf("column_1 kind = %v", kind)
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "parquet": FormatParquet} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if FormatForPath("out/rows.PARQUET") != FormatParquet || FormatForPath("rows.txt") != FormatCSV {
		t.Fatal("FormatForPath() picked the wrong format")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	format, err := WriteFile(path, rowCounts)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if format != FormatCSV {
		t.Fatalf("format = %q", format)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(body), "table_name,row_count,share\n") {
		t.Fatalf("file = %q", string(body))
	}
}

func TestPublisherUploadsAndPresigns(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	publisher := NewPublisher(store, time.Minute)
	publisher.now = func() time.Time { return time.Date(2026, 5, 4, 10, 11, 12, 0, time.UTC) }

	published, err := publisher.Publish(context.Background(), "session-1", FormatCSV, rowCounts)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	wantKey := "exports/2026/05/04/session-1/000001-101112.csv"
	if published.Key != wantKey {
		t.Fatalf("Key = %q, want %q", published.Key, wantKey)
	}
	if published.DownloadURL != "https://exports.example/"+wantKey || published.Rows != 2 {
		t.Fatalf("published = %#v", published)
	}
	if published.Size != int64(len(store.objects[wantKey])) || store.contentTypes[wantKey] != "text/csv" {
		t.Fatalf("stored object mismatch: %#v", published)
	}
	if store.link.Expiry != time.Minute || store.link.DownloadName != "query_results.csv" {
		t.Fatalf("link options = %+v", store.link)
	}
	if meta := store.metadata[wantKey]; meta["session-id"] != "session-1" || meta["rows"] != "2" || meta["format"] != "csv" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestPublisherRejectsInvalidSession(t *testing.T) {
	publisher := NewPublisher(&memoryStore{objects: map[string][]byte{}}, 0)
	if _, err := publisher.Publish(context.Background(), "../x", FormatCSV, rowCounts); err == nil {
		t.Fatal("expected error for invalid session id")
	}
}

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	metadata     map[string]map[string]string
	link         storage.LinkOptions
}

func (m *memoryStore) Put(_ context.Context, object storage.Object) (storage.ObjectInfo, error) {
	payload, err := io.ReadAll(object.Body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if m.contentTypes == nil {
		m.contentTypes = map[string]string{}
		m.metadata = map[string]map[string]string{}
	}
	m.objects[object.Key] = payload
	m.contentTypes[object.Key] = object.ContentType
	m.metadata[object.Key] = object.Metadata
	return storage.ObjectInfo{Key: object.Key, Size: object.Size}, nil
}

func (m *memoryStore) PresignGet(_ context.Context, key string, opts storage.LinkOptions) (string, error) {
	m.link = opts
	return "https://exports.example/" + key, nil
}
