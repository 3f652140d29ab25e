package filter

import (
	"context"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Range keeps rows whose numeric Column lies within [Min, Max]. A nil bound is open.
type Range struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Range) Kind() string { return "filter_range" }

func (t *Range) Describe() string {
	return t.Column + " in " + sh.FormatInterval(t.Min, t.Max)
}

func (t *Range) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return sh.InvalidParam(t.Kind(), "min", "%g is greater than max %g", *t.Min, *t.Max)
	}
	return nil
}

func (t *Range) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	col, err := sh.NumericColumnOf(t.Kind(), f, t.Column)
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if sh.IsMissing(col, i) {
			continue
		}
		v, _ := sh.FloatAt(col, i)
		if t.Min != nil && v < *t.Min {
			continue
		}
		if t.Max != nil && v > *t.Max {
			continue
		}
		rows = append(rows, i)
	}
	return f.Take(rows), nil
}
