// Package jsonlio reads and writes newline-delimited JSON objects.
package jsonlio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	iox "github.com/wdm0006/shaper/pkg/io/ioutils"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type ReaderOptions struct {
	SampleRows int
}

type object struct {
	keys   []string
	values map[string]any
}

// Reader decodes one JSON object per line. Blank lines are skipped. Columns
// are ordered by first appearance across the sampled objects.
type Reader struct {
	sc   *bufio.Scanner
	rc   io.Closer
	opt  ReaderOptions
	buf  []object
	keys []string
	line int
}

// Open opens a JSONL file (or stdin for "-"), transparently decompressing gzip.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	r := NewReaderFrom(rc, opt)
	r.rc = rc
	return r, nil
}

func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc, opt: opt}
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// next returns io.EOF once the input is exhausted.
func (r *Reader) next() (object, error) {
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		obj, err := decodeObject(line)
		if err != nil {
			return object{}, fmt.Errorf("jsonl line %d: %w", r.line, err)
		}
		return obj, nil
	}
	if err := r.sc.Err(); err != nil {
		return object{}, err
	}
	return object{}, io.EOF
}

// decodeObject keeps the key order of the source line.
func decodeObject(line []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return object{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return object{}, errors.New("expected a JSON object")
	}
	obj := object{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return object{}, err
		}
		key := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return object{}, err
		}
		if _, dup := obj.values[key]; !dup {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = v
	}
	return obj, nil
}

func (r *Reader) InferSchema() (sh.Schema, error) {
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	seen := map[string]struct{}{}
	for len(r.buf) < max {
		obj, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sh.Schema{}, err
		}
		r.buf = append(r.buf, obj)
		for _, k := range obj.keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				r.keys = append(r.keys, k)
			}
		}
	}
	kinds := inferKinds(r.buf, r.keys)
	schema := sh.Schema{Columns: make([]sh.ColumnSchema, len(r.keys))}
	for i, k := range r.keys {
		schema.Columns[i] = sh.ColumnSchema{Name: k, Type: kinds[i], Nullable: true}
	}
	return schema, nil
}

// ReadAll loads every remaining object. Keys missing from the schema are
// ignored; values that do not fit the column kind become null.
func (r *Reader) ReadAll(schema sh.Schema) (*sh.Frame, error) {
	f := sh.NewFrame(schema)
	for _, obj := range r.buf {
		if err := f.AppendRow(rowFromObject(schema, obj)); err != nil {
			return nil, err
		}
	}
	r.buf = nil
	for {
		obj, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := f.AppendRow(rowFromObject(schema, obj)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func rowFromObject(schema sh.Schema, obj object) map[string]any {
	m := make(map[string]any, len(schema.Columns))
	for _, cs := range schema.Columns {
		v, ok := obj.values[cs.Name]
		if !ok || v == nil {
			continue
		}
		if x, ok := convert(cs.Type, v); ok {
			m[cs.Name] = x
		}
	}
	return m
}

func convert(k sh.Kind, v any) (any, bool) {
	switch k {
	case sh.KindFloat:
		switch t := v.(type) {
		case json.Number:
			x, err := t.Float64()
			return x, err == nil
		case string:
			x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			return x, err == nil
		}
	case sh.KindInt:
		switch t := v.(type) {
		case json.Number:
			if x, err := t.Int64(); err == nil {
				return x, true
			}
			x, err := t.Float64()
			if err != nil || x != float64(int64(x)) {
				return nil, false
			}
			return int64(x), true
		case string:
			x, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			return x, err == nil
		}
	case sh.KindBool:
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			x, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(t)))
			return x, err == nil
		}
	case sh.KindTime:
		if s, ok := v.(string); ok {
			x, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
			return x, err == nil
		}
	default:
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		default:
			// nested values are kept as their JSON text
			b, _ := json.Marshal(t)
			return string(b), true
		}
	}
	return nil, false
}

func inferKinds(sample []object, keys []string) []sh.Kind {
	kinds := make([]sh.Kind, len(keys))
	for i, k := range keys {
		nNum, nInt, nBool, nTime, nStr := 0, 0, 0, 0, 0
		for _, obj := range sample {
			v, ok := obj.values[k]
			if !ok || v == nil {
				continue
			}
			switch t := v.(type) {
			case json.Number:
				nNum++
				if _, err := t.Int64(); err == nil {
					nInt++
				}
			case bool:
				nBool++
			case string:
				s := strings.TrimSpace(t)
				if s == "" {
					continue
				}
				if ls := strings.ToLower(s); ls == "true" || ls == "false" {
					nBool++
				} else if _, err := time.Parse(time.RFC3339, s); err == nil {
					nTime++
				} else {
					nStr++
				}
			default:
				nStr++
			}
		}
		switch {
		case nBool > 0 && nNum == 0 && nTime == 0 && nStr == 0:
			kinds[i] = sh.KindBool
		case nTime > 0 && nNum == 0 && nBool == 0 && nStr == 0:
			kinds[i] = sh.KindTime
		case nNum > 0 && nNum >= nStr && nBool == 0:
			if nInt == nNum {
				kinds[i] = sh.KindInt
			} else {
				kinds[i] = sh.KindFloat
			}
		default:
			kinds[i] = sh.KindString
		}
	}
	return kinds
}

// ReadFile opens path, infers the schema and loads every object.
func ReadFile(path string, opt ReaderOptions) (*sh.Frame, error) {
	r, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	schema, err := r.InferSchema()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f, err := r.ReadAll(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
