// Package impute fills null cells. Every step returns a new frame; columns
// without any non-null value to learn from are passed through unchanged.
package impute

import (
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// fill returns f with the nulls of col replaced by v, coerced to the column kind.
func fill(step string, f *sh.Frame, col sh.Column, v any) (*sh.Frame, error) {
	out, err := sh.NewColumn(col.Name(), col.Kind())
	if err != nil {
		return nil, err
	}
	for i := 0; i < col.Len(); i++ {
		cell := col.Value(i)
		if cell == nil {
			cell = v
		}
		if err := out.AppendValue(cell); err != nil {
			return nil, sh.InvalidParam(step, "value", "%v", err)
		}
	}
	return f.WithColumn(out)
}

func nonNull(col sh.Column) []float64 {
	xs := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := sh.FloatAt(col, i); ok {
			xs = append(xs, v)
		}
	}
	return xs
}
