// Package project holds steps that reshape the column set of a frame
// without touching its rows.
package project

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func checkNames(step, param string, names []string) error {
	if len(names) == 0 {
		return sh.InvalidParam(step, param, "at least one column is required")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return sh.InvalidParam(step, param, "empty column name")
		}
		if _, dup := seen[n]; dup {
			return sh.InvalidParam(step, param, "column %q listed twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Select keeps the listed columns, in the listed order.
type Select struct{ Columns []string }

func (t *Select) Kind() string     { return "select_columns" }
func (t *Select) Describe() string { return strings.Join(t.Columns, ", ") }
func (t *Select) Validate() error  { return checkNames(t.Kind(), "columns", t.Columns) }

func (t *Select) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := sh.RequireColumns(t.Kind(), f, t.Columns...); err != nil {
		return nil, err
	}
	return f.Select(t.Columns...)
}

// Drop removes the listed columns.
type Drop struct{ Columns []string }

func (t *Drop) Kind() string     { return "drop_columns" }
func (t *Drop) Describe() string { return strings.Join(t.Columns, ", ") }
func (t *Drop) Validate() error  { return checkNames(t.Kind(), "columns", t.Columns) }

func (t *Drop) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := sh.RequireColumns(t.Kind(), f, t.Columns...); err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(t.Columns))
	for _, n := range t.Columns {
		drop[n] = struct{}{}
	}
	var keep []string
	for _, n := range f.Names() {
		if _, gone := drop[n]; !gone {
			keep = append(keep, n)
		}
	}
	return f.Select(keep...)
}

// Rename maps old column names to new ones; other columns keep their names.
type Rename struct{ Mapping map[string]string }

func (t *Rename) Kind() string { return "rename_columns" }

func (t *Rename) Describe() string {
	keys := make([]string, 0, len(t.Mapping))
	for k := range t.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s->%s", k, t.Mapping[k])
	}
	return strings.Join(parts, ", ")
}

func (t *Rename) Validate() error {
	if len(t.Mapping) == 0 {
		return sh.InvalidParam(t.Kind(), "mapping", "must not be empty")
	}
	targets := make(map[string]string, len(t.Mapping))
	for from, to := range t.Mapping {
		if from == "" || to == "" {
			return sh.InvalidParam(t.Kind(), "mapping", "empty column name")
		}
		if prev, dup := targets[to]; dup {
			return sh.InvalidParam(t.Kind(), "mapping", "%q and %q both renamed to %q", prev, from, to)
		}
		targets[to] = from
	}
	return nil
}

func (t *Rename) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	froms := make([]string, 0, len(t.Mapping))
	for from := range t.Mapping {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	if err := sh.RequireColumns(t.Kind(), f, froms...); err != nil {
		return nil, err
	}
	cols := make([]sh.Column, 0, f.Cols())
	for i := 0; i < f.Cols(); i++ {
		c := f.Column(i)
		name := c.Name()
		if to, ok := t.Mapping[name]; ok {
			name = to
		}
		cols = append(cols, c.Rename(name))
	}
	out, err := sh.NewFrameFromColumns(cols...)
	if err != nil {
		return nil, sh.InvalidParam(t.Kind(), "mapping", "%v", err)
	}
	return out, nil
}
