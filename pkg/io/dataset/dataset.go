// Package dataset picks a loader or writer for a path by its format.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wdm0006/shaper/pkg/io/csvio"
	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	"github.com/wdm0006/shaper/pkg/io/jsonlio"
	"github.com/wdm0006/shaper/pkg/io/parquetio"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type Format string

const (
	CSV     Format = "csv"
	TSV     Format = "tsv"
	JSONL   Format = "jsonl"
	Parquet Format = "parquet"
)

// Options control how a dataset is read or written. The zero value detects
// the format from the path and assumes a header row for delimited text.
type Options struct {
	Format    Format
	NoHeader  bool
	Delimiter rune
	Strict    bool
}

// ParseFormat accepts the format names used in configuration files.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, TSV, JSONL, Parquet:
		return f, nil
	case "ndjson", "json":
		return JSONL, nil
	}
	return "", fmt.Errorf("unknown dataset format %q", s)
}

// Detect infers the format from the path extension; a trailing .gz is ignored.
func Detect(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(iox.TrimGzip(path))); ext {
	case ".csv", ".txt":
		return CSV, nil
	case ".tsv", ".tab":
		return TSV, nil
	case ".jsonl", ".ndjson", ".json":
		return JSONL, nil
	case ".parquet", ".pq":
		return Parquet, nil
	default:
		return "", fmt.Errorf("cannot detect dataset format of %q", path)
	}
}

func resolve(path string, opt Options) (Format, error) {
	f := opt.Format
	if f == "" {
		var err error
		if f, err = Detect(path); err != nil {
			return "", err
		}
	}
	if f == Parquet && iox.IsGzipPath(path) {
		return "", fmt.Errorf("%s: parquet files cannot be gzip wrapped", path)
	}
	return f, nil
}

func (o Options) delimiter(f Format) rune {
	if o.Delimiter != 0 {
		return o.Delimiter
	}
	if f == TSV {
		return '\t'
	}
	return 0
}

// Load reads the dataset at path into a frame.
func Load(path string, opt Options) (*sh.Frame, error) {
	f, err := resolve(path, opt)
	if err != nil {
		return nil, err
	}
	switch f {
	case CSV, TSV:
		return csvio.ReadFile(path, csvio.ReaderOptions{
			HasHeader: !opt.NoHeader,
			Delimiter: opt.delimiter(f),
			Strict:    opt.Strict,
		})
	case JSONL:
		return jsonlio.ReadFile(path, jsonlio.ReaderOptions{})
	default:
		return parquetio.ReadFile(path)
	}
}

// Write stores frame at path, replacing any existing file only once the
// whole dataset has been written.
func Write(path string, frame *sh.Frame, opt Options) error {
	f, err := resolve(path, opt)
	if err != nil {
		return err
	}
	switch f {
	case CSV, TSV:
		d := opt.delimiter(f)
		if d == 0 {
			d = ','
		}
		return csvio.WriteAll(path, frame, csvio.WriterOptions{Delimiter: d})
	case JSONL:
		return jsonlio.WriteAll(path, frame)
	default:
		return parquetio.WriteAll(path, frame)
	}
}
