// Package parquetio loads flat Parquet files into frames and writes frames
// as Parquet.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"

	parquet "github.com/segmentio/parquet-go"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Reader reads a Parquet file whose columns are all top-level primitives.
// The frame schema follows the file schema: booleans map to bool, 32 and 64
// bit integers to int, floats and doubles to float, everything else to string.
type Reader struct {
	file   *os.File
	reader *parquet.Reader
	schema sh.Schema
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := parquet.NewReader(f)
	schema, err := frameSchema(r.Schema())
	if err != nil {
		_ = r.Close()
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Reader{file: f, reader: r, schema: schema}, nil
}

func (r *Reader) Close() error {
	_ = r.reader.Close()
	return r.file.Close()
}

func (r *Reader) Schema() sh.Schema { return r.schema }

func frameSchema(ps *parquet.Schema) (sh.Schema, error) {
	fields := ps.Fields()
	s := sh.Schema{Columns: make([]sh.ColumnSchema, len(fields))}
	for i, fd := range fields {
		if !fd.Leaf() {
			return sh.Schema{}, fmt.Errorf("parquet: nested column %q is not supported", fd.Name())
		}
		s.Columns[i] = sh.ColumnSchema{Name: fd.Name(), Type: kindOf(fd.Type().Kind()), Nullable: fd.Optional()}
	}
	return s, nil
}

func kindOf(k parquet.Kind) sh.Kind {
	switch k {
	case parquet.Boolean:
		return sh.KindBool
	case parquet.Int32, parquet.Int64:
		return sh.KindInt
	case parquet.Float, parquet.Double:
		return sh.KindFloat
	}
	return sh.KindString
}

func cellOf(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	}
	return string(v.ByteArray())
}

func (r *Reader) ReadAll() (*sh.Frame, error) {
	f := sh.NewFrame(r.schema)
	names := r.schema.Names()
	buf := make([]parquet.Row, 1024)
	for {
		n, err := r.reader.ReadRows(buf)
		for _, row := range buf[:n] {
			m := make(map[string]any, len(names))
			for _, v := range row {
				if v.IsNull() || v.Column() < 0 || v.Column() >= len(names) {
					continue
				}
				m[names[v.Column()]] = cellOf(v)
			}
			if err := f.AppendRow(m); err != nil {
				return nil, err
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return f, nil
}

// ReadFile loads every row of the Parquet file at path.
func ReadFile(path string) (*sh.Frame, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	f, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
