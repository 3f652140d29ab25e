// Package aggregate holds steps that summarise or reorder rows.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Aggregation functions understood by GroupBy.
const (
	OpSum    = "sum"
	OpMean   = "mean"
	OpCount  = "count"
	OpMin    = "min"
	OpMax    = "max"
	OpMedian = "median"
	OpStd    = "std"
)

// Ops lists every supported aggregation function.
var Ops = []string{OpSum, OpMean, OpCount, OpMin, OpMax, OpMedian, OpStd}

func knownOp(op string) bool {
	for _, o := range Ops {
		if o == op {
			return true
		}
	}
	return false
}

// GroupBy groups rows on the GroupBy column and reduces Column with Op.
// The result has two columns: the group key and the aggregate, named As (or
// Column when As is empty). Groups keep the order in which their key first
// appears; rows with a null key are dropped.
type GroupBy struct {
	GroupBy string
	Column  string
	Op      string
	As      string
}

func (t *GroupBy) Kind() string { return "group_aggregate" }

func (t *GroupBy) Describe() string {
	return fmt.Sprintf("%s(%s) by %s as %s", t.Op, t.Column, t.GroupBy, t.output())
}

func (t *GroupBy) output() string {
	if t.As != "" {
		return t.As
	}
	return t.Column
}

func (t *GroupBy) Validate() error {
	if t.GroupBy == "" {
		return sh.InvalidParam(t.Kind(), "group_by", "must not be empty")
	}
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "agg_col", "must not be empty")
	}
	if !knownOp(t.Op) {
		return sh.InvalidParam(t.Kind(), "op", "unknown aggregation %q (want one of %s)", t.Op, strings.Join(Ops, ", "))
	}
	if t.output() == t.GroupBy {
		return sh.InvalidParam(t.Kind(), "as", "output column %q collides with the group key", t.output())
	}
	return nil
}

// groupKey makes cell values usable as map keys; times are compared by instant.
func groupKey(v any) any {
	if ts, ok := v.(time.Time); ok {
		return ts.UnixNano()
	}
	return v
}

func (t *GroupBy) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	keys, ok := f.ColumnByName(t.GroupBy)
	if !ok {
		return nil, sh.InvalidParam(t.Kind(), "group_by", "group key %q is not a column", t.GroupBy)
	}
	vals, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, sh.Missing(t.Kind(), t.Column)
	}
	if t.Op != OpCount && !vals.Kind().Numeric() {
		return nil, sh.InvalidParam(t.Kind(), "agg_col", "%s needs a numeric column, %s is %s", t.Op, t.Column, vals.Kind())
	}

	var (
		first  []int // first row of each group
		groups [][]int
		index  = map[any]int{}
	)
	for r := 0; r < keys.Len(); r++ {
		if keys.IsNull(r) {
			continue
		}
		k := groupKey(keys.Value(r))
		g, seen := index[k]
		if !seen {
			g = len(groups)
			index[k] = g
			first = append(first, r)
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], r)
	}

	out, err := sh.NewColumn(t.output(), t.resultKind(vals.Kind()))
	if err != nil {
		return nil, err
	}
	for g, rows := range groups {
		v, err := t.reduce(vals, rows)
		if err != nil {
			return nil, sh.InvalidParam(t.Kind(), "agg_col", "group %v: %v", keys.Value(first[g]), err)
		}
		if err := out.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return sh.NewFrameFromColumns(keys.Take(first), out)
}

func (t *GroupBy) resultKind(in sh.Kind) sh.Kind {
	switch t.Op {
	case OpCount:
		return sh.KindInt
	case OpSum, OpMin, OpMax:
		if in == sh.KindInt {
			return sh.KindInt
		}
	}
	return sh.KindFloat
}

// reduce returns nil when the group has nothing to aggregate.
func (t *GroupBy) reduce(c sh.Column, rows []int) (any, error) {
	if t.Op == OpCount {
		n := int64(0)
		for _, r := range rows {
			if !c.IsNull(r) {
				n++
			}
		}
		return n, nil
	}
	if ic, ok := c.(*sh.IntColumn); ok && t.resultKind(sh.KindInt) == sh.KindInt {
		return reduceInts(t.Op, ic, rows)
	}

	xs := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := sh.FloatAt(c, r); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		if t.Op == OpSum {
			return 0.0, nil
		}
		return nil, nil
	}
	switch t.Op {
	case OpSum:
		return floats.Sum(xs), nil
	case OpMean:
		return stat.Mean(xs, nil), nil
	case OpMin:
		return floats.Min(xs), nil
	case OpMax:
		return floats.Max(xs), nil
	case OpMedian:
		return median(xs), nil
	case OpStd:
		if len(xs) < 2 {
			return nil, nil
		}
		sd := stat.StdDev(xs, nil)
		if math.IsNaN(sd) {
			return nil, nil
		}
		return sd, nil
	}
	return nil, nil
}

var errIntOverflow = errors.New("int64 sum overflows")

func reduceInts(op string, c *sh.IntColumn, rows []int) (any, error) {
	var (
		acc  int64
		seen bool
	)
	for _, r := range rows {
		v, ok := c.Get(r)
		if !ok {
			continue
		}
		switch {
		case op == OpSum:
			sum := acc + v
			if (v > 0 && sum < acc) || (v < 0 && sum > acc) {
				return nil, errIntOverflow
			}
			acc = sum
		case !seen:
			acc = v
		case op == OpMin && v < acc:
			acc = v
		case op == OpMax && v > acc:
			acc = v
		}
		seen = true
	}
	if !seen && op != OpSum {
		return nil, nil
	}
	return acc, nil
}

// median averages the two middle values for even-sized input.
func median(xs []float64) float64 {
	vals := append([]float64(nil), xs...)
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		return (vals[mid-1] + vals[mid]) / 2
	}
	return vals[mid]
}
