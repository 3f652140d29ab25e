package parquetio

import (
	"encoding/json"
	"fmt"
	"time"

	pw "github.com/xitongsys/parquet-go/writer"
	local "github.com/xitongsys/parquet-go-source/local"
	"go.uber.org/multierr"

	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func parquetSchemaJSON(s sh.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case sh.KindFloat:
			tag += "DOUBLE"
		case sh.KindInt:
			tag += "INT64"
		case sh.KindBool:
			tag += "BOOLEAN"
		default:
			// times are stored as RFC 3339 text
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

// Write writes f to a Parquet file at path. Use WriteAll for atomic output.
func Write(path string, f *sh.Frame) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	schema, err := parquetSchemaJSON(f.Schema())
	if err != nil {
		_ = fw.Close()
		return err
	}
	writer, err := pw.NewJSONWriter(schema, fw, 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}
	defer func() {
		err = multierr.Combine(err, writer.WriteStop(), fw.Close())
	}()
	rec := make(map[string]any, f.Cols())
	for r := 0; r < f.Rows(); r++ {
		clear(rec)
		for c := 0; c < f.Cols(); c++ {
			col := f.Column(c)
			switch v := col.Value(r).(type) {
			case nil:
			case time.Time:
				rec[col.Name()] = v.Format(time.RFC3339)
			default:
				rec[col.Name()] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := writer.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	return nil
}

// WriteAll writes f to path through a temporary file renamed into place on success.
func WriteAll(path string, f *sh.Frame) error {
	return iox.WriteFileAtomic(path, func(tmp string) error { return Write(tmp, f) })
}
