package validate

import (
	"context"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type Range struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Range) Kind() string     { return "validate_range" }
func (t *Range) Describe() string { return t.Column + " within " + sh.FormatInterval(t.Min, t.Max) }

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
	var bad int
	for i := 0; i < col.Len(); i++ {
		v, ok := sh.FloatAt(col, i)
		if !ok {
			continue
		}
		if (t.Min != nil && v < *t.Min) || (t.Max != nil && v > *t.Max) {
			bad++
		}
	}
	if bad > 0 {
		return nil, &sh.ValidationError{Step: t.Kind(), Column: t.Column, Count: bad, Reason: "out-of-range values"}
	}
	return f, nil
}
