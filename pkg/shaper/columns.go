package shaper

import (
	"math"
	"strconv"
)

// StringColumnOf fetches name from f as a string column, reporting a missing
// column or a wrong kind as step validation errors.
func StringColumnOf(step string, f *Frame, name string) (*StringColumn, error) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return nil, Missing(step, name)
	}
	sc, ok := col.(*StringColumn)
	if !ok {
		return nil, InvalidParam(step, "column", "%s is %s, want string", name, col.Kind())
	}
	return sc, nil
}

// NumericColumnOf fetches name from f and checks that it holds ints or floats.
func NumericColumnOf(step string, f *Frame, name string) (Column, error) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return nil, Missing(step, name)
	}
	if !col.Kind().Numeric() {
		return nil, InvalidParam(step, "column", "%s is %s, want a numeric column", name, col.Kind())
	}
	return col, nil
}

// FloatAt reads a numeric cell as float64; ok is false for nulls.
func FloatAt(c Column, i int) (float64, bool) {
	switch t := c.(type) {
	case *FloatColumn:
		return t.Get(i)
	case *IntColumn:
		v, ok := t.Get(i)
		return float64(v), ok
	}
	return 0, false
}

// IsMissing reports whether cell i of c is null or a float NaN.
func IsMissing(c Column, i int) bool {
	if c.IsNull(i) {
		return true
	}
	if fc, ok := c.(*FloatColumn); ok {
		v, _ := fc.Get(i)
		return math.IsNaN(v)
	}
	return false
}

// MapStrings returns a copy of f in which fn has been applied to every
// non-null cell of the string column name.
func MapStrings(step string, f *Frame, name string, fn func(string) string) (*Frame, error) {
	sc, err := StringColumnOf(step, f, name)
	if err != nil {
		return nil, err
	}
	out := sc.Clone()
	for i := 0; i < out.Len(); i++ {
		if v, ok := out.Get(i); ok {
			out.Set(i, fn(v))
		}
	}
	return f.WithColumn(out)
}

// Indices returns 0..n-1.
func Indices(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// FormatInterval renders optional bounds as "[min, max]" with open ends shown as -inf/+inf.
func FormatInterval(min, max *float64) string {
	lo, hi := "-inf", "+inf"
	if min != nil {
		lo = strconv.FormatFloat(*min, 'g', -1, 64)
	}
	if max != nil {
		hi = strconv.FormatFloat(*max, 'g', -1, 64)
	}
	return "[" + lo + ", " + hi + "]"
}
