package standardize

import (
	"context"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// MapValues replaces exact matches found in Map; other values pass through.
type MapValues struct {
	Column string
	Map    map[string]string
}

func (t *MapValues) Kind() string { return "map_values" }

func (t *MapValues) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if len(t.Map) == 0 {
		return sh.InvalidParam(t.Kind(), "map", "must not be empty")
	}
	return nil
}

func (t *MapValues) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return sh.MapStrings(t.Kind(), f, t.Column, func(v string) string {
		if nv, ok := t.Map[v]; ok {
			return nv
		}
		return v
	})
}
