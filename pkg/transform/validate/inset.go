// Package validate holds steps that check cell values and fail the run with
// a *shaper.ValidationError instead of changing anything.
package validate

import (
	"context"
	"sort"
	"strings"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type InSet struct {
	Column string
	Values map[string]struct{}
}

func NewInSet(col string, vals []string) *InSet {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return &InSet{Column: col, Values: m}
}

func (t *InSet) Kind() string { return "validate_in" }

func (t *InSet) Describe() string {
	vals := make([]string, 0, len(t.Values))
	for v := range t.Values {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return t.Column + " in {" + strings.Join(vals, ", ") + "}"
}

func (t *InSet) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if len(t.Values) == 0 {
		return sh.InvalidParam(t.Kind(), "values", "must not be empty")
	}
	return nil
}

// Run passes f through untouched when every non-null value is allowed.
func (t *InSet) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	sc, err := sh.StringColumnOf(t.Kind(), f, t.Column)
	if err != nil {
		return nil, err
	}
	var bad int
	for i := 0; i < sc.Len(); i++ {
		v, ok := sc.Get(i)
		if !ok {
			continue
		}
		if _, ok := t.Values[v]; !ok {
			bad++
		}
	}
	if bad > 0 {
		return nil, &sh.ValidationError{Step: t.Kind(), Column: t.Column, Count: bad, Reason: "values outside allowed set"}
	}
	return f, nil
}
