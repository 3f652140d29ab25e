package aggregate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func sales(t *testing.T) *sh.Frame {
	t.Helper()
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "region", Type: sh.KindString, Nullable: true},
		{Name: "sales", Type: sh.KindInt, Nullable: true},
		{Name: "score", Type: sh.KindFloat, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"region": "East", "sales": 100, "score": 1.0},
		{"region": "West", "sales": 200, "score": 2.0},
		{"region": "East", "sales": 150, "score": 4.0},
		{"region": nil, "sales": 999, "score": 9.0},
		{"region": "North", "sales": nil, "score": nil},
	})
	assert.NoError(t, err)
	return f
}

func TestGroupBySumKeepsFirstSeenOrder(t *testing.T) {
	st := &GroupBy{GroupBy: "region", Column: "sales", Op: OpSum}
	assert.NoError(t, st.Validate())
	out, err := st.Run(context.Background(), sales(t), sh.Settings{})
	assert.NoError(t, err)

	assert.Equal(t, []string{"region", "sales"}, out.Names())
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, []map[string]any{
		{"region": "East", "sales": int64(250)},
		{"region": "West", "sales": int64(200)},
		{"region": "North", "sales": int64(0)},
	}, out.Records())
}

func TestGroupByOps(t *testing.T) {
	cases := []struct {
		op    string
		col   string
		east  any
		north any
		kind  sh.Kind
	}{
		{OpCount, "sales", int64(2), int64(0), sh.KindInt},
		{OpMin, "sales", int64(100), nil, sh.KindInt},
		{OpMax, "sales", int64(150), nil, sh.KindInt},
		{OpMean, "sales", 125.0, nil, sh.KindFloat},
		{OpMedian, "score", 2.5, nil, sh.KindFloat},
		{OpSum, "score", 5.0, 0.0, sh.KindFloat},
	}
	for _, c := range cases {
		t.Run(c.op, func(t *testing.T) {
			st := &GroupBy{GroupBy: "region", Column: c.col, Op: c.op, As: "v"}
			out, err := st.Run(context.Background(), sales(t), sh.Settings{})
			assert.NoError(t, err)
			col, ok := out.ColumnByName("v")
			assert.True(t, ok)
			assert.Equal(t, c.kind, col.Kind())
			assert.Equal(t, c.east, out.Value(0, "v"))
			assert.Equal(t, c.north, out.Value(2, "v"))
		})
	}
}

func TestGroupByStdNeedsTwoValues(t *testing.T) {
	st := &GroupBy{GroupBy: "region", Column: "score", Op: OpStd}
	out, err := st.Run(context.Background(), sales(t), sh.Settings{})
	assert.NoError(t, err)
	sd, ok := out.Value(0, "score").(float64)
	assert.True(t, ok)
	assert.True(t, sd > 2.12 && sd < 2.13)
	assert.Equal(t, nil, out.Value(1, "score"))
}

func TestGroupByErrors(t *testing.T) {
	ctx := context.Background()

	_, err := (&GroupBy{GroupBy: "nope", Column: "sales", Op: OpSum}).Run(ctx, sales(t), sh.Settings{})
	var perr *sh.InvalidParameterError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "group_by", perr.Param)

	_, err = (&GroupBy{GroupBy: "region", Column: "nope", Op: OpSum}).Run(ctx, sales(t), sh.Settings{})
	var merr *sh.MissingColumnError
	assert.True(t, errors.As(err, &merr))

	_, err = (&GroupBy{GroupBy: "sales", Column: "region", Op: OpMean}).Run(ctx, sales(t), sh.Settings{})
	assert.True(t, errors.Is(err, sh.ErrStepValidation))

	assert.Error(t, (&GroupBy{GroupBy: "region", Column: "sales", Op: "avg"}).Validate())
	assert.Error(t, (&GroupBy{GroupBy: "region", Column: "sales", Op: OpSum, As: "region"}).Validate())
}

func TestSort(t *testing.T) {
	f := sales(t)
	out, err := (&Sort{Column: "sales", Descending: true}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	got := make([]any, out.Rows())
	for i := range got {
		got[i] = out.Value(i, "sales")
	}
	assert.Equal(t, []any{int64(999), int64(200), int64(150), int64(100), nil}, got)

	out, err = (&Sort{Column: "region"}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	for i := range got {
		got[i] = out.Value(i, "region")
	}
	assert.Equal(t, []any{"East", "East", "North", "West", nil}, got)
	// stable: the two East rows keep their relative order
	assert.Equal[any](t, int64(100), out.Value(0, "sales"))
	assert.Equal[any](t, int64(150), out.Value(1, "sales"))

	_, err = (&Sort{Column: "nope"}).Run(context.Background(), f, sh.Settings{})
	var merr *sh.MissingColumnError
	assert.True(t, errors.As(err, &merr))
}

func TestGroupBySumOverflow(t *testing.T) {
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "k", Type: sh.KindString, Nullable: true},
		{Name: "v", Type: sh.KindInt, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"k": "a", "v": int64(math.MaxInt64)},
		{"k": "a", "v": 1},
		{"k": "b", "v": int64(math.MinInt64)},
	})
	assert.NoError(t, err)

	_, err = (&GroupBy{GroupBy: "k", Column: "v", Op: OpSum}).Run(context.Background(), f, sh.Settings{})
	var perr *sh.InvalidParameterError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "agg_col", perr.Param)
	assert.Contains(t, err.Error(), "overflow")

	out, err := (&GroupBy{GroupBy: "k", Column: "v", Op: OpMax}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal[any](t, int64(math.MaxInt64), out.Value(0, "v"))
}

func TestSortPutsNaNWithNulls(t *testing.T) {
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "id", Type: sh.KindInt, Nullable: true},
		{Name: "x", Type: sh.KindFloat, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"id": 1, "x": 3.0},
		{"id": 2, "x": math.NaN()},
		{"id": 3, "x": 1.0},
		{"id": 4, "x": nil},
		{"id": 5, "x": 2.0},
	})
	assert.NoError(t, err)
	ids := func(f *sh.Frame) []any {
		out := make([]any, f.Rows())
		for i := range out {
			out[i] = f.Value(i, "id")
		}
		return out
	}

	out, err := (&Sort{Column: "x"}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(5), int64(1), int64(2), int64(4)}, ids(out))

	out, err = (&Sort{Column: "x", Descending: true}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(5), int64(3), int64(2), int64(4)}, ids(out))
}

func TestSortLargeIntsExactly(t *testing.T) {
	s := sh.Schema{Columns: []sh.ColumnSchema{{Name: "id", Type: sh.KindInt}}}
	f, err := sh.FromRows(s, []map[string]any{
		{"id": int64(9007199254740993)},
		{"id": int64(9007199254740992)},
	})
	assert.NoError(t, err)
	out, err := (&Sort{Column: "id"}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal[any](t, int64(9007199254740992), out.Value(0, "id"))
	assert.Equal[any](t, int64(9007199254740993), out.Value(1, "id"))
}

func TestAggregateStepsLeaveInputAlone(t *testing.T) {
	f := sales(t)
	before := f.Clone()
	steps := []sh.Step{
		&GroupBy{GroupBy: "region", Column: "sales", Op: OpSum},
		&GroupBy{GroupBy: "region", Column: "score", Op: OpMedian},
		&Sort{Column: "sales", Descending: true},
	}
	for _, st := range steps {
		_, err := st.Run(context.Background(), f, sh.Settings{})
		assert.NoError(t, err, st.Kind())
		assert.True(t, f.Equal(before), st.Kind())
	}
}
