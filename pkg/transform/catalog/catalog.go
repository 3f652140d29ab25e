// Package catalog turns declarative step entries, as found in config files,
// into typed steps.
//
// Two entry shapes are accepted:
//
//	{"kind": "filter_value", "column": "age", "op": "gt", "value": 30}
//	{"impute_mean": {"column": "age"}}
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/transform/aggregate"
	"github.com/wdm0006/shaper/pkg/transform/filter"
	"github.com/wdm0006/shaper/pkg/transform/impute"
	"github.com/wdm0006/shaper/pkg/transform/outliers"
	"github.com/wdm0006/shaper/pkg/transform/project"
	"github.com/wdm0006/shaper/pkg/transform/standardize"
	"github.com/wdm0006/shaper/pkg/transform/validate"
)

// Decoder builds a step from its parameters.
type Decoder func(p sh.Settings) (sh.Step, error)

// Entry describes one step kind. Params lists the accepted parameter keys;
// anything else in an entry is rejected.
type Entry struct {
	Kind   string
	Params []string
	Decode Decoder
	Help   string
}

// Catalog is a finalized kind to decoder table. It is safe for concurrent use.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog. Duplicate or empty kinds and nil decoders are
// reported as *shaper.ConfigurationError.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Kind == "" {
			return nil, &sh.ConfigurationError{Key: "kind", Reason: "step kind must not be empty"}
		}
		if e.Decode == nil {
			return nil, &sh.ConfigurationError{Key: e.Kind, Reason: "step kind has no decoder"}
		}
		if _, dup := c.entries[e.Kind]; dup {
			return nil, &sh.ConfigurationError{Key: e.Kind, Reason: "step kind registered twice"}
		}
		c.entries[e.Kind] = e
	}
	return c, nil
}

// Default returns a catalog over Builtins.
func Default() *Catalog {
	c, err := New(Builtins()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Kinds returns the registered kinds, sorted.
func (c *Catalog) Kinds() []string {
	kinds := maps.Keys(c.entries)
	slices.Sort(kinds)
	return kinds
}

func (c *Catalog) Lookup(kind string) (Entry, bool) {
	e, ok := c.entries[kind]
	return e, ok
}

// Decode turns a single entry into a step.
func (c *Catalog) Decode(entry any) (sh.Step, error) {
	kind, params, err := split(entry)
	if err != nil {
		return nil, err
	}
	e, ok := c.entries[kind]
	if !ok {
		return nil, &sh.ConfigurationError{Key: kind, Reason: fmt.Sprintf("unknown step kind (known: %s)", strings.Join(c.Kinds(), ", "))}
	}
	for _, k := range params.Keys() {
		if !slices.Contains(e.Params, k) {
			return nil, &sh.ConfigurationError{Key: kind + "." + k, Reason: "unknown parameter"}
		}
	}
	return e.Decode(params)
}

// DecodeAll decodes a list of entries, failing on the first bad one.
func (c *Catalog) DecodeAll(entries []any) ([]sh.Step, error) {
	steps := make([]sh.Step, 0, len(entries))
	for i, raw := range entries {
		st, err := c.Decode(raw)
		if err != nil {
			return nil, &sh.ConfigurationError{Key: fmt.Sprintf("steps[%d]", i), Reason: "invalid step", Err: err}
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func split(entry any) (string, sh.Settings, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return "", sh.Settings{}, &sh.ConfigurationError{Reason: fmt.Sprintf("step entry must be a mapping, got %T", entry)}
	}
	s := sh.NewSettings(m)
	if s.Has("kind") {
		kind, err := s.String("kind")
		if err != nil {
			return "", sh.Settings{}, err
		}
		rest := s.Map()
		delete(rest, "kind")
		return kind, sh.NewSettings(rest), nil
	}
	if s.Len() != 1 {
		return "", sh.Settings{}, &sh.ConfigurationError{Reason: "step entry needs a kind key or a single step name"}
	}
	kind := s.Keys()[0]
	params, err := s.Sub(kind)
	if err != nil {
		return "", sh.Settings{}, err
	}
	return kind, params, nil
}

func optFloat(p sh.Settings, key string) (*float64, error) {
	if !p.Has(key) {
		return nil, nil
	}
	v, err := p.Float(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func bounds(p sh.Settings) (string, *float64, *float64, error) {
	col, err := p.String("column")
	if err != nil {
		return "", nil, nil, err
	}
	lo, err := optFloat(p, "min")
	if err != nil {
		return "", nil, nil, err
	}
	hi, err := optFloat(p, "max")
	if err != nil {
		return "", nil, nil, err
	}
	return col, lo, hi, nil
}

func columnOnly(build func(col string) sh.Step) Decoder {
	return func(p sh.Settings) (sh.Step, error) {
		col, err := p.String("column")
		if err != nil {
			return nil, err
		}
		return build(col), nil
	}
}

func normalizeAlias(mode string) Decoder {
	return columnOnly(func(col string) sh.Step {
		return &standardize.Normalize{Columns: []string{col}, Modes: []string{mode}}
	})
}

// Builtins returns an entry for every step kind shipped with shaper.
func Builtins() []Entry {
	return []Entry{
		{Kind: "filter_value", Params: []string{"column", "op", "value", "value_from"}, Help: "keep rows whose column compares true against a value", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			op, err := p.StringOr("op", filter.OpEq)
			if err != nil {
				return nil, err
			}
			from, err := p.StringOr("value_from", "")
			if err != nil {
				return nil, err
			}
			v, _ := p.Get("value")
			return &filter.ByColumnValue{Column: col, Op: op, Value: v, ValueFrom: from}, nil
		}},
		{Kind: "filter_expr", Params: []string{"expression"}, Help: "keep rows matching a boolean expression", Decode: func(p sh.Settings) (sh.Step, error) {
			e, err := p.String("expression")
			if err != nil {
				return nil, err
			}
			return &filter.Expr{Expression: e}, nil
		}},
		{Kind: "filter_range", Params: []string{"column", "min", "max"}, Help: "keep rows inside numeric bounds", Decode: func(p sh.Settings) (sh.Step, error) {
			col, lo, hi, err := bounds(p)
			if err != nil {
				return nil, err
			}
			return &filter.Range{Column: col, Min: lo, Max: hi}, nil
		}},
		{Kind: "select_columns", Params: []string{"columns"}, Help: "keep the listed columns in order", Decode: func(p sh.Settings) (sh.Step, error) {
			cols, err := p.StringsOr("columns", nil)
			if err != nil {
				return nil, err
			}
			return &project.Select{Columns: cols}, nil
		}},
		{Kind: "drop_columns", Params: []string{"columns"}, Help: "remove the listed columns", Decode: func(p sh.Settings) (sh.Step, error) {
			cols, err := p.StringsOr("columns", nil)
			if err != nil {
				return nil, err
			}
			return &project.Drop{Columns: cols}, nil
		}},
		{Kind: "rename_columns", Params: []string{"mapping"}, Help: "rename columns", Decode: func(p sh.Settings) (sh.Step, error) {
			m, err := p.StringMapOr("mapping", nil)
			if err != nil {
				return nil, err
			}
			return &project.Rename{Mapping: m}, nil
		}},
		{Kind: "normalize", Params: []string{"column", "columns", "mode", "modes"}, Help: "normalize string columns", Decode: func(p sh.Settings) (sh.Step, error) {
			cols, err := p.StringsOr("columns", nil)
			if err != nil {
				return nil, err
			}
			if one, err := p.StringOr("column", ""); err != nil {
				return nil, err
			} else if one != "" {
				cols = append(cols, one)
			}
			modes, err := p.StringsOr("modes", nil)
			if err != nil {
				return nil, err
			}
			if one, err := p.StringOr("mode", ""); err != nil {
				return nil, err
			} else if one != "" {
				modes = append(modes, one)
			}
			return &standardize.Normalize{Columns: cols, Modes: modes}, nil
		}},
		{Kind: "trim", Params: []string{"column"}, Help: "shorthand for normalize with mode trim", Decode: normalizeAlias(standardize.ModeTrim)},
		{Kind: "lower", Params: []string{"column"}, Help: "shorthand for normalize with mode lower", Decode: normalizeAlias(standardize.ModeLower)},
		{Kind: "regex_replace", Params: []string{"column", "pattern", "replace"}, Help: "regexp replace in a string column", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			pat, err := p.String("pattern")
			if err != nil {
				return nil, err
			}
			rep, err := p.StringOr("replace", "")
			if err != nil {
				return nil, err
			}
			return &standardize.RegexReplace{Column: col, Pattern: pat, Replace: rep}, nil
		}},
		{Kind: "map_values", Params: []string{"column", "map"}, Help: "replace exact string values", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			m, err := p.StringMapOr("map", nil)
			if err != nil {
				return nil, err
			}
			return &standardize.MapValues{Column: col, Map: m}, nil
		}},
		{Kind: "group_aggregate", Params: []string{"group_by", "agg_col", "op", "as"}, Help: "group rows and aggregate one column", Decode: func(p sh.Settings) (sh.Step, error) {
			by, err := p.String("group_by")
			if err != nil {
				return nil, err
			}
			col, err := p.String("agg_col")
			if err != nil {
				return nil, err
			}
			op, err := p.StringOr("op", aggregate.OpSum)
			if err != nil {
				return nil, err
			}
			as, err := p.StringOr("as", "")
			if err != nil {
				return nil, err
			}
			return &aggregate.GroupBy{GroupBy: by, Column: col, Op: op, As: as}, nil
		}},
		{Kind: "sort", Params: []string{"column", "descending"}, Help: "stable sort, nulls last", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			desc, err := p.BoolOr("descending", false)
			if err != nil {
				return nil, err
			}
			return &aggregate.Sort{Column: col, Descending: desc}, nil
		}},
		{Kind: "impute_constant", Params: []string{"column", "value"}, Help: "fill nulls with a constant", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			v, _ := p.Get("value")
			return &impute.Constant{Column: col, Value: v}, nil
		}},
		{Kind: "impute_mean", Params: []string{"column"}, Help: "fill nulls with the column mean",
			Decode: columnOnly(func(col string) sh.Step { return &impute.Mean{Column: col} })},
		{Kind: "impute_median", Params: []string{"column"}, Help: "fill nulls with the column median",
			Decode: columnOnly(func(col string) sh.Step { return &impute.Median{Column: col} })},
		{Kind: "impute_mode", Params: []string{"column"}, Help: "fill nulls with the most frequent value",
			Decode: columnOnly(func(col string) sh.Step { return &impute.Mode{Column: col} })},
		{Kind: "cap_range", Params: []string{"column", "min", "max"}, Help: "clamp numeric values", Decode: func(p sh.Settings) (sh.Step, error) {
			col, lo, hi, err := bounds(p)
			if err != nil {
				return nil, err
			}
			return &outliers.Cap{Column: col, Min: lo, Max: hi}, nil
		}},
		{Kind: "validate_in", Params: []string{"column", "values"}, Help: "fail when values fall outside a set", Decode: func(p sh.Settings) (sh.Step, error) {
			col, err := p.String("column")
			if err != nil {
				return nil, err
			}
			vals, err := p.StringsOr("values", nil)
			if err != nil {
				return nil, err
			}
			return validate.NewInSet(col, vals), nil
		}},
		{Kind: "validate_range", Params: []string{"column", "min", "max"}, Help: "fail when values fall outside bounds", Decode: func(p sh.Settings) (sh.Step, error) {
			col, lo, hi, err := bounds(p)
			if err != nil {
				return nil, err
			}
			return &validate.Range{Column: col, Min: lo, Max: hi}, nil
		}},
	}
}
