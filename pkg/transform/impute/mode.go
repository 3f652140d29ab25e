package impute

import (
	"context"
	"time"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Mode fills nulls with the most frequent value. On a tie the value that
// reached the winning count first is used.
type Mode struct{ Column string }

func (t *Mode) Kind() string { return "impute_mode" }

func (t *Mode) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, sh.Missing(t.Kind(), t.Column)
	}
	counts := map[any]int{}
	var (
		best  any
		bestc int
	)
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			continue
		}
		key := v
		if ts, ok := v.(time.Time); ok {
			key = ts.UnixNano()
		}
		counts[key]++
		if counts[key] > bestc {
			bestc = counts[key]
			best = v
		}
	}
	if best == nil {
		return f, nil
	}
	return fill(t.Kind(), f, col, best)
}
