package impute

import (
	"context"
	"sort"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Median fills nulls with the column median. For an even count the two middle
// values are averaged; int columns truncate that average.
type Median struct{ Column string }

func (t *Median) Kind() string { return "impute_median" }

func (t *Median) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	col, err := sh.NumericColumnOf(t.Kind(), f, t.Column)
	if err != nil {
		return nil, err
	}
	if ic, ok := col.(*sh.IntColumn); ok {
		vals := make([]int64, 0, ic.Len())
		for i := 0; i < ic.Len(); i++ {
			if v, ok := ic.Get(i); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return f, nil
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		mid := len(vals) / 2
		med := vals[mid]
		if len(vals)%2 == 0 {
			med = midpoint(vals[mid-1], vals[mid])
		}
		return fill(t.Kind(), f, col, med)
	}

	vals := nonNull(col)
	if len(vals) == 0 {
		return f, nil
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	med := vals[mid]
	if len(vals)%2 == 0 {
		med = (vals[mid-1] + vals[mid]) / 2
	}
	return fill(t.Kind(), f, col, med)
}

// midpoint returns (a+b)/2 truncated toward zero without overflowing; a <= b.
func midpoint(a, b int64) int64 {
	switch {
	case a < 0 && b >= 0:
		return (a + b) / 2
	case a >= 0:
		return a + (b-a)/2
	}
	return b + (a-b)/2
}
