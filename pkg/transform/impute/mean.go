package impute

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Mean fills nulls with the column mean. Int columns get the mean rounded
// half away from zero.
type Mean struct{ Column string }

func (t *Mean) Kind() string { return "impute_mean" }

func (t *Mean) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	col, err := sh.NumericColumnOf(t.Kind(), f, t.Column)
	if err != nil {
		return nil, err
	}
	xs := nonNull(col)
	if len(xs) == 0 {
		return f, nil
	}
	mean := stat.Mean(xs, nil)
	if col.Kind() == sh.KindInt {
		return fill(t.Kind(), f, col, int64(math.Round(mean)))
	}
	return fill(t.Kind(), f, col, mean)
}
