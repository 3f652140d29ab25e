package filter

import (
	"context"
	"fmt"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// ByColumnValue keeps the rows whose Column compares true against Value.
// When ValueFrom is set the comparison value is read from the pipeline
// settings under that key instead.
type ByColumnValue struct {
	Column    string
	Op        string
	Value     any
	ValueFrom string
}

func (t *ByColumnValue) Kind() string { return "filter_value" }

func (t *ByColumnValue) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if _, err := NormalizeOp(t.Op); err != nil {
		return sh.InvalidParam(t.Kind(), "op", "%v", err)
	}
	if t.Value == nil && t.ValueFrom == "" {
		return sh.InvalidParam(t.Kind(), "value", "one of value or value_from is required")
	}
	return nil
}

func (t *ByColumnValue) Describe() string {
	op, _ := NormalizeOp(t.Op)
	if t.ValueFrom != "" {
		return fmt.Sprintf("%s %s settings[%s]", t.Column, op, t.ValueFrom)
	}
	return fmt.Sprintf("%s %s %v", t.Column, op, t.Value)
}

func (t *ByColumnValue) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, sh.Missing(t.Kind(), t.Column)
	}
	value := t.Value
	if t.ValueFrom != "" {
		v, ok := s.Get(t.ValueFrom)
		if !ok {
			return nil, sh.InvalidParam(t.Kind(), "value_from", "settings key %q is missing", t.ValueFrom)
		}
		value = v
	}
	op, _ := NormalizeOp(t.Op)
	pred, err := buildPredicate(t.Kind(), col.Kind(), op, value)
	if err != nil {
		return nil, err
	}
	return f.Take(keep(col, pred)), nil
}
