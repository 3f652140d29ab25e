// Package outliers clamps numeric values into a configured interval.
package outliers

import (
	"context"
	"math"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Cap clamps the numeric Column into [Min, Max]. Int columns clamp to the
// bounds rounded inward, so the result never leaves the interval.
type Cap struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Cap) Kind() string     { return "cap_range" }
func (t *Cap) Describe() string { return t.Column + " to " + sh.FormatInterval(t.Min, t.Max) }

func (t *Cap) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if t.Min == nil && t.Max == nil {
		return sh.InvalidParam(t.Kind(), "min", "at least one of min or max is required")
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return sh.InvalidParam(t.Kind(), "min", "%g is greater than max %g", *t.Min, *t.Max)
	}
	return nil
}

func (t *Cap) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	col, err := sh.NumericColumnOf(t.Kind(), f, t.Column)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *sh.FloatColumn:
		out := c.Clone()
		for i := 0; i < out.Len(); i++ {
			v, ok := out.Get(i)
			if !ok {
				continue
			}
			if t.Min != nil && v < *t.Min {
				v = *t.Min
			}
			if t.Max != nil && v > *t.Max {
				v = *t.Max
			}
			out.Set(i, v)
		}
		return f.WithColumn(out)
	case *sh.IntColumn:
		out := c.Clone()
		for i := 0; i < out.Len(); i++ {
			v, ok := out.Get(i)
			if !ok {
				continue
			}
			if t.Min != nil && float64(v) < *t.Min {
				v = int64(math.Ceil(*t.Min))
			}
			if t.Max != nil && float64(v) > *t.Max {
				v = int64(math.Floor(*t.Max))
			}
			out.Set(i, v)
		}
		return f.WithColumn(out)
	}
	return f, nil
}
