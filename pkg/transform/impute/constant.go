package impute

import (
	"context"
	"fmt"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type Constant struct {
	Column string
	// coerced to the column kind at run time
	Value any
}

func (t *Constant) Kind() string     { return "impute_constant" }
func (t *Constant) Describe() string { return fmt.Sprintf("%s <- %v", t.Column, t.Value) }

func (t *Constant) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if t.Value == nil {
		return sh.InvalidParam(t.Kind(), "value", "must not be null")
	}
	return nil
}

func (t *Constant) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, sh.Missing(t.Kind(), t.Column)
	}
	return fill(t.Kind(), f, col, t.Value)
}
