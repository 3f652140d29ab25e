package aggregate

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"time"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Sort orders rows by Column. The sort is stable and nulls (and float NaNs)
// always come last.
type Sort struct {
	Column     string
	Descending bool
}

func (t *Sort) Kind() string { return "sort" }

func (t *Sort) Describe() string {
	if t.Descending {
		return t.Column + " desc"
	}
	return t.Column + " asc"
}

func (t *Sort) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	return nil
}

func (t *Sort) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, sh.Missing(t.Kind(), t.Column)
	}
	rows := sh.Indices(f.Rows())
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		an, bn := sh.IsMissing(col, a), sh.IsMissing(col, b)
		if an || bn {
			return !an && bn
		}
		c := compareCells(col, a, b)
		if t.Descending {
			return c > 0
		}
		return c < 0
	})
	return f.Take(rows), nil
}

func compareCells(c sh.Column, a, b int) int {
	if ic, ok := c.(*sh.IntColumn); ok {
		x, _ := ic.Get(a)
		y, _ := ic.Get(b)
		return cmp.Compare(x, y)
	}
	if c.Kind().Numeric() {
		x, _ := sh.FloatAt(c, a)
		y, _ := sh.FloatAt(c, b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch x := c.Value(a).(type) {
	case string:
		return strings.Compare(x, c.Value(b).(string))
	case time.Time:
		return x.Compare(c.Value(b).(time.Time))
	case bool:
		y := c.Value(b).(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}
