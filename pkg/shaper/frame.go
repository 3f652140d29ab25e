package shaper

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

func (s Schema) Lookup(name string) (ColumnSchema, bool) {
	for _, cs := range s.Columns {
		if cs.Name == name {
			return cs, true
		}
	}
	return ColumnSchema{}, false
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "bool":
		return KindBool, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "string":
		return KindString, true
	case "time":
		return KindTime, true
	}
	return KindInvalid, false
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	// Value returns the cell as bool, int64, float64, string or time.Time, or nil when null.
	Value(i int) any
	// Take returns a new column holding the given rows in the given order.
	Take(rows []int) Column
	// Rename returns a copy of the column under a new name.
	Rename(name string) Column
	AppendValue(v any) error
	AppendNull()
}

// TypedColumn stores one Go type per cell plus a null mask.
type TypedColumn[T any] struct {
	name  string
	kind  Kind
	data  []T
	nulls []bool
}

type (
	BoolColumn   = TypedColumn[bool]
	IntColumn    = TypedColumn[int64]
	FloatColumn  = TypedColumn[float64]
	StringColumn = TypedColumn[string]
	TimeColumn   = TypedColumn[time.Time]
)

func newTyped[T any](name string, k Kind, n int) *TypedColumn[T] {
	return &TypedColumn[T]{name: name, kind: k, data: make([]T, n), nulls: make([]bool, n)}
}

func NewBoolColumn(name string, n int) *BoolColumn     { return newTyped[bool](name, KindBool, n) }
func NewIntColumn(name string, n int) *IntColumn       { return newTyped[int64](name, KindInt, n) }
func NewFloatColumn(name string, n int) *FloatColumn   { return newTyped[float64](name, KindFloat, n) }
func NewStringColumn(name string, n int) *StringColumn { return newTyped[string](name, KindString, n) }
func NewTimeColumn(name string, n int) *TimeColumn     { return newTyped[time.Time](name, KindTime, n) }

// NewColumn allocates an empty column of the given kind.
func NewColumn(name string, k Kind) (Column, error) {
	switch k {
	case KindBool:
		return NewBoolColumn(name, 0), nil
	case KindInt:
		return NewIntColumn(name, 0), nil
	case KindFloat:
		return NewFloatColumn(name, 0), nil
	case KindString:
		return NewStringColumn(name, 0), nil
	case KindTime:
		return NewTimeColumn(name, 0), nil
	}
	return nil, fmt.Errorf("invalid column kind %d for %q", int(k), name)
}

func (c *TypedColumn[T]) Name() string        { return c.name }
func (c *TypedColumn[T]) Kind() Kind          { return c.kind }
func (c *TypedColumn[T]) Len() int            { return len(c.data) }
func (c *TypedColumn[T]) IsNull(i int) bool   { return c.nulls[i] }
func (c *TypedColumn[T]) SetNull(i int)       { c.nulls[i] = true }
func (c *TypedColumn[T]) Get(i int) (T, bool) { return c.data[i], !c.nulls[i] }
func (c *TypedColumn[T]) Set(i int, v T)      { c.data[i] = v; c.nulls[i] = false }
func (c *TypedColumn[T]) Append(v T)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

func (c *TypedColumn[T]) AppendNull() {
	var zero T
	c.data = append(c.data, zero)
	c.nulls = append(c.nulls, true)
}

func (c *TypedColumn[T]) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}

func (c *TypedColumn[T]) AppendValue(v any) error {
	if v == nil {
		c.AppendNull()
		return nil
	}
	x, err := Coerce(c.kind, v)
	if err != nil {
		return fmt.Errorf("column %s: %w", c.name, err)
	}
	c.Append(x.(T))
	return nil
}

func (c *TypedColumn[T]) Take(rows []int) Column {
	out := newTyped[T](c.name, c.kind, len(rows))
	for i, r := range rows {
		out.data[i] = c.data[r]
		out.nulls[i] = c.nulls[r]
	}
	return out
}

func (c *TypedColumn[T]) Rename(name string) Column {
	out := c.Clone()
	out.name = name
	return out
}

// Clone returns a deep copy of the column.
func (c *TypedColumn[T]) Clone() *TypedColumn[T] {
	out := &TypedColumn[T]{name: c.name, kind: c.kind, data: make([]T, len(c.data)), nulls: make([]bool, len(c.nulls))}
	copy(out.data, c.data)
	copy(out.nulls, c.nulls)
	return out
}

// Coerce converts v into the canonical Go type for kind k:
// bool, int64, float64, string or time.Time.
func Coerce(k Kind, v any) (any, error) {
	switch k {
	case KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			if b, err := strconv.ParseBool(t); err == nil {
				return b, nil
			}
		}
	case KindInt:
		switch t := v.(type) {
		case int:
			return int64(t), nil
		case int32:
			return int64(t), nil
		case int64:
			return t, nil
		case uint64:
			if t <= math.MaxInt64 {
				return int64(t), nil
			}
		case float64:
			if t == math.Trunc(t) {
				return int64(t), nil
			}
		case string:
			if x, err := strconv.ParseInt(t, 10, 64); err == nil {
				return x, nil
			}
		}
	case KindFloat:
		if f, ok := AsFloat(v); ok {
			return f, nil
		}
		if s, ok := v.(string); ok {
			if x, err := strconv.ParseFloat(s, 64); err == nil {
				return x, nil
			}
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts, nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown column kind %d", int(k))
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, k)
}

// AsFloat reports whether v is a Go numeric value and returns it as float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

// Frame is a columnar container for tabular data.
//
// Steps treat a Frame as an immutable value and return new frames; the
// mutating helpers (AppendNullRow, AppendRow, SetCell) exist for loaders that
// are still assembling a frame nobody else has seen.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func NewFrame(s Schema) *Frame {
	f := &Frame{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		col, err := NewColumn(cs.Name, cs.Type)
		if err != nil {
			panic(err)
		}
		f.cols[i] = col
		f.index[cs.Name] = i
	}
	return f
}

// NewFrameFromColumns assembles a frame from equally sized columns.
func NewFrameFromColumns(cols ...Column) (*Frame, error) {
	f := &Frame{cols: make([]Column, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name())
		}
		if i == 0 {
			f.nrows = c.Len()
		} else if c.Len() != f.nrows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), f.nrows)
		}
		f.cols[i] = c
		f.index[c.Name()] = i
		f.schema.Columns = append(f.schema.Columns, ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true})
	}
	return f, nil
}

// FromRows builds a frame with the given schema from row maps. Missing keys are null.
func FromRows(s Schema, rows []map[string]any) (*Frame, error) {
	f := NewFrame(s)
	for i, r := range rows {
		if err := f.AppendRow(r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return f, nil
}

func (f *Frame) Schema() Schema {
	cols := make([]ColumnSchema, len(f.schema.Columns))
	copy(cols, f.schema.Columns)
	return Schema{Columns: cols}
}

func (f *Frame) Rows() int           { return f.nrows }
func (f *Frame) Cols() int           { return len(f.cols) }
func (f *Frame) Names() []string     { return f.schema.Names() }
func (f *Frame) Column(i int) Column { return f.cols[i] }

func (f *Frame) ColumnByName(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Value returns a single cell, nil when null or when the column does not exist.
func (f *Frame) Value(row int, name string) any {
	c, ok := f.ColumnByName(name)
	if !ok {
		return nil
	}
	return c.Value(row)
}

// Row returns row i as a column-name keyed map. Null cells are present with a nil value.
func (f *Frame) Row(i int) map[string]any {
	m := make(map[string]any, len(f.cols))
	for _, c := range f.cols {
		m[c.Name()] = c.Value(i)
	}
	return m
}

// Records returns every row as a map.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.nrows)
	for i := range out {
		out[i] = f.Row(i)
	}
	return out
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		c.AppendNull()
	}
	f.nrows++
}

// AppendRow appends one row; keys absent from m become null.
func (f *Frame) AppendRow(m map[string]any) error {
	for k := range m {
		if _, ok := f.index[k]; !ok {
			return fmt.Errorf("unknown column: %s", k)
		}
	}
	vals := make([]any, len(f.cols))
	for i, c := range f.cols {
		v := m[c.Name()]
		if v == nil {
			continue
		}
		x, err := Coerce(c.Kind(), v)
		if err != nil {
			return fmt.Errorf("column %s: %w", c.Name(), err)
		}
		vals[i] = x
	}
	for i, c := range f.cols {
		_ = c.AppendValue(vals[i])
	}
	f.nrows++
	return nil
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	switch col := f.cols[i].(type) {
	case *BoolColumn:
		return setTyped(col, row, v)
	case *IntColumn:
		return setTyped(col, row, v)
	case *FloatColumn:
		return setTyped(col, row, v)
	case *StringColumn:
		return setTyped(col, row, v)
	case *TimeColumn:
		return setTyped(col, row, v)
	}
	return fmt.Errorf("unknown column kind")
}

func setTyped[T any](c *TypedColumn[T], row int, v any) error {
	if v == nil {
		c.SetNull(row)
		return nil
	}
	x, err := Coerce(c.kind, v)
	if err != nil {
		return fmt.Errorf("column %s expects %s: %w", c.name, c.kind, err)
	}
	c.Set(row, x.(T))
	return nil
}

// Take returns a new frame with the given rows, in order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{schema: f.Schema(), cols: make([]Column, len(f.cols)), index: make(map[string]int, len(f.cols)), nrows: len(rows)}
	for i, c := range f.cols {
		out.cols[i] = c.Take(rows)
		out.index[c.Name()] = i
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return f.Take(Indices(f.nrows))
}

// Select returns a new frame holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	rows := Indices(f.nrows)
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c, ok := f.ColumnByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown column: %s", n)
		}
		cols = append(cols, c.Take(rows))
	}
	out, err := NewFrameFromColumns(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = f.nrows
	return out, nil
}

// WithColumn returns a new frame where c replaces the column of the same name,
// or is appended when no such column exists.
func (f *Frame) WithColumn(c Column) (*Frame, error) {
	if c.Len() != f.nrows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), f.nrows)
	}
	out := f.Clone()
	if i, ok := out.index[c.Name()]; ok {
		out.cols[i] = c
		out.schema.Columns[i].Type = c.Kind()
		return out, nil
	}
	out.index[c.Name()] = len(out.cols)
	out.cols = append(out.cols, c)
	out.schema.Columns = append(out.schema.Columns, ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true})
	return out, nil
}

// Equal reports whether both frames have the same columns, kinds and cells.
// Two NaN float cells are equal.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.nrows != o.nrows || len(f.cols) != len(o.cols) {
		return false
	}
	for i, c := range f.cols {
		oc := o.cols[i]
		if c.Name() != oc.Name() || c.Kind() != oc.Kind() {
			return false
		}
		for r := 0; r < f.nrows; r++ {
			a, b := c.Value(r), oc.Value(r)
			if ta, ok := a.(time.Time); ok {
				tb, ok := b.(time.Time)
				if !ok || !ta.Equal(tb) {
					return false
				}
				continue
			}
			if fa, ok := a.(float64); ok && math.IsNaN(fa) {
				if fb, ok := b.(float64); ok && math.IsNaN(fb) {
					continue
				}
			}
			if a != b {
				return false
			}
		}
	}
	return true
}
