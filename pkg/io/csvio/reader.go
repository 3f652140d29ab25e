// Package csvio loads delimited text into frames and writes frames back out.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff, default ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records
}

type Reader struct {
	r   *csv.Reader
	rc  io.Closer
	opt ReaderOptions
	buf [][]string
	// repair/warning counters
	shortRecords int
	longRecords  int
}

// Open opens a CSV file (or stdin for "-"), transparently decompressing gzip.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(rc)
	if opt.Delimiter == 0 {
		sample, _ := br.Peek(4096)
		d, lazy := sniffDelimiterAndQuotes(sample)
		r := newReader(br, opt, d)
		r.r.LazyQuotes = lazy
		r.rc = rc
		return r, nil
	}
	r := newReader(br, opt, opt.Delimiter)
	r.rc = rc
	return r, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe).
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	d := opt.Delimiter
	if d == 0 {
		d = ','
	}
	return newReader(r, opt, d)
}

func newReader(r io.Reader, opt ReaderOptions, delim rune) *Reader {
	rr := csv.NewReader(r)
	rr.Comma = delim
	// record length mismatches are counted (or rejected in strict mode) by ReadAll
	rr.FieldsPerRecord = -1
	return &Reader{r: rr, opt: opt}
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// InferSchema reads header (if present) and samples rows to determine column kinds.
// A file holding only a header yields string columns and no rows.
func (r *Reader) InferSchema() (sh.Schema, []string, error) {
	rec, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return sh.Schema{}, nil, fmt.Errorf("csv: empty input")
		}
		return sh.Schema{}, nil, err
	}
	var names []string
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.TrimSpace(strings.ToValidUTF8(rec[i], "?"))
		}
		// strip BOM on first header cell if present
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
		seen := make(map[string]struct{}, len(names))
		for _, n := range names {
			if _, dup := seen[n]; dup {
				return sh.Schema{}, nil, fmt.Errorf("csv: duplicate header %q", n)
			}
			seen[n] = struct{}{}
		}
		rec, err = r.r.Read()
		if errors.Is(err, io.EOF) {
			return schemaOf(names, make([]sh.Kind, len(names))), names, nil
		}
		if err != nil {
			return sh.Schema{}, nil, err
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
	}

	sample := [][]string{rec}
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for i := 1; i < max; i++ {
		rr, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sh.Schema{}, nil, err
		}
		sample = append(sample, rr)
	}

	// retain sampled rows for subsequent ReadAll
	r.buf = append(r.buf, sample...)
	return schemaOf(names, inferKinds(sample, len(names))), names, nil
}

func schemaOf(names []string, kinds []sh.Kind) sh.Schema {
	schema := sh.Schema{Columns: make([]sh.ColumnSchema, len(names))}
	for i := range names {
		k := kinds[i]
		if k == sh.KindInvalid {
			k = sh.KindString
		}
		schema.Columns[i] = sh.ColumnSchema{Name: names[i], Type: k, Nullable: true}
	}
	return schema
}

// ReadAll loads the rest of the CSV into a Frame. Cells that are empty or do
// not parse as the column kind become null.
func (r *Reader) ReadAll(schema sh.Schema) (*sh.Frame, error) {
	f := sh.NewFrame(schema)
	for _, rec := range r.buf {
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	r.buf = nil
	for {
		rec, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := r.appendRecord(f, schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (r *Reader) appendRecord(f *sh.Frame, schema sh.Schema, rec []string) error {
	row := f.Rows() + 1
	switch {
	case len(rec) > len(schema.Columns):
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv long record at row %d: need %d fields, got %d", row, len(schema.Columns), len(rec))
		}
	case len(rec) < len(schema.Columns):
		r.shortRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv short record at row %d: need %d fields, got %d", row, len(schema.Columns), len(rec))
		}
	}
	m := make(map[string]any, len(schema.Columns))
	for i, cs := range schema.Columns {
		if i >= len(rec) {
			break
		}
		if v, ok := parseCell(cs.Type, rec[i]); ok {
			m[cs.Name] = v
		}
	}
	return f.AppendRow(m)
}

func parseCell(k sh.Kind, raw string) (any, bool) {
	val := strings.ToValidUTF8(strings.TrimSpace(raw), "?")
	if val == "" {
		return nil, false
	}
	switch k {
	case sh.KindFloat:
		x, err := strconv.ParseFloat(val, 64)
		return x, err == nil
	case sh.KindInt:
		x, err := strconv.ParseInt(val, 10, 64)
		return x, err == nil
	case sh.KindBool:
		x, err := strconv.ParseBool(strings.ToLower(val))
		return x, err == nil
	case sh.KindTime:
		x, err := time.Parse(time.RFC3339, val)
		return x, err == nil
	}
	return val, true
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(rows [][]string, ncol int) []sh.Kind {
	kinds := make([]sh.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, ts, str := 0, 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			switch lv := strings.ToLower(v); {
			case numre.MatchString(v):
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			case lv == "true" || lv == "false":
				boolean++
			default:
				if _, err := time.Parse(time.RFC3339, v); err == nil {
					ts++
				} else {
					str++
				}
			}
		}
		switch {
		case num > 0 && boolean == 0 && ts == 0 && num > str:
			// prefer float over int to be permissive
			if integer == num {
				kinds[c] = sh.KindInt
			} else {
				kinds[c] = sh.KindFloat
			}
		case boolean > 0 && num == 0 && ts == 0 && str == 0:
			kinds[c] = sh.KindBool
		case ts > 0 && num == 0 && boolean == 0 && str == 0:
			kinds[c] = sh.KindTime
		default:
			kinds[c] = sh.KindString
		}
	}
	return kinds
}

func sniffDelimiterAndQuotes(sample []byte) (rune, bool) {
	if len(sample) == 0 {
		return ',', false
	}
	// the first line decides
	if i := strings.IndexByte(string(sample), '\n'); i > 0 {
		sample = sample[:i]
	}
	candidates := []byte{',', '\t', ';', '|'}
	best := byte(',')
	bestCount := 0
	for _, c := range candidates {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	quoteCount := 0
	for _, b := range sample {
		if b == '"' {
			quoteCount++
		}
	}
	return rune(best), quoteCount%2 != 0
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	if r.shortRecords == 0 && r.longRecords == 0 {
		return ""
	}
	parts := []string{}
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	return strings.Join(parts, ", ")
}

// ReadFile opens path, infers the schema and loads every row.
func ReadFile(path string, opt ReaderOptions) (*sh.Frame, error) {
	r, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	schema, _, err := r.InferSchema()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f, err := r.ReadAll(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
