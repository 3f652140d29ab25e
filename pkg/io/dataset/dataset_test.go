package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func sales(t *testing.T) *sh.Frame {
	t.Helper()
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "region", Type: sh.KindString, Nullable: true},
		{Name: "sales", Type: sh.KindInt, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"region": "East", "sales": 100},
		{"region": "West", "sales": 200},
		{"region": "East", "sales": 150},
	})
	assert.NoError(t, err)
	return f
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data.csv", CSV},
		{"data.CSV.gz", CSV},
		{"data.tsv", TSV},
		{"data.ndjson", JSONL},
		{"data.jsonl.gz", JSONL},
		{"data.parquet", Parquet},
	}
	for _, tt := range tests {
		got, err := Detect(tt.path)
		assert.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
	_, err := Detect("data.xlsx")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" NDJSON ")
	assert.NoError(t, err)
	assert.Equal(t, JSONL, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRoundTripText(t *testing.T) {
	dir := t.TempDir()
	src := sales(t)
	for _, name := range []string{"out.csv", "out.tsv", "out.csv.gz", "out.jsonl", "out.jsonl.gz"} {
		path := filepath.Join(dir, name)
		assert.NoError(t, Write(path, src, Options{}), name)
		back, err := Load(path, Options{})
		assert.NoError(t, err, name)
		assert.Equal(t, src.Records(), back.Records(), name)
	}
}

func TestExplicitFormatOverridesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.dat")
	assert.NoError(t, Write(path, sales(t), Options{Format: JSONL}))
	raw, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `{"region":"East","sales":100}`)

	back, err := Load(path, Options{Format: JSONL})
	assert.NoError(t, err)
	assert.Equal(t, 3, back.Rows())
}

func TestGzipParquetRejected(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "x.parquet.gz"), sales(t), Options{})
	assert.Error(t, err)
}

func TestFailedWriteLeavesTargetUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.xyz")
	assert.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	assert.Error(t, Write(path, sales(t), Options{}))
	raw, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "old", string(raw))
}
